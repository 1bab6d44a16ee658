// Package config loads and validates the dictionary builder configuration
// from YAML files with environment-variable overrides. It provides typed
// structs for the corpus, the pipeline, the text output and every optional
// sink (Postgres, SQLite, Redis, Kafka).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Output    OutputConfig    `yaml:"output"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CorpusConfig locates the corpus files and names the record markers.
type CorpusConfig struct {
	Dir       string        `yaml:"dir"`
	Recursive bool          `yaml:"recursive"`
	Markers   MarkersConfig `yaml:"markers"`
}

// MarkersConfig holds the tag names delimiting a record, its id and its text.
type MarkersConfig struct {
	Record string `yaml:"record"`
	ID     string `yaml:"id"`
	Text   string `yaml:"text"`
}

// StopwordsConfig points at the whitespace-separated stopword list.
type StopwordsConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig sizes the scan worker pool. Zero means one worker per CPU.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig controls the text dictionary file.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the SQLite database file location.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RedisConfig holds Redis connection parameters and the dictionary key layout.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
	BatchSize int           `yaml:"batchSize"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DictionaryBuilt string `yaml:"dictionaryBuilt"`
}

// SinksConfig bounds every sink delivery.
type SinksConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls whether the per-run span tree is logged.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w: %v", path, apperrors.ErrInvalidConfig, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config matching the classic FT911 layout: a ft911/
// folder, stopwordlist.txt and parser_output.txt in the working directory.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir: "ft911",
			Markers: MarkersConfig{
				Record: "DOC",
				ID:     "DOCNO",
				Text:   "TEXT",
			},
		},
		Stopwords: StopwordsConfig{Path: "stopwordlist.txt"},
		Output:    OutputConfig{Path: "parser_output.txt"},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "dictionary",
			User:            "dictionary",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{Path: "dictionary.db"},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "dict",
			BatchSize: 1000,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				DictionaryBuilt: "dictionary.built",
			},
		},
		Sinks: SinksConfig{
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate reports the first configuration problem as ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Corpus.Dir == "":
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "corpus.dir is required")
	case c.Stopwords.Path == "":
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "stopwords.path is required")
	case c.Output.Path == "":
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "output.path is required")
	case c.Pipeline.Workers < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "pipeline.workers must be >= 0, got %d", c.Pipeline.Workers)
	}
	m := c.Corpus.Markers
	for name, tag := range map[string]string{"record": m.Record, "id": m.ID, "text": m.Text} {
		if tag == "" || strings.ContainsAny(tag, "<>/ \t\n") {
			return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "corpus.markers.%s %q is not a valid tag name", name, tag)
		}
	}
	if m.Record == m.ID || m.Record == m.Text || m.ID == m.Text {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "corpus markers must be distinct")
	}
	if c.SQLite.Enabled && c.SQLite.Path == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "sqlite.path is required when sqlite is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topics.DictionaryBuilt == "") {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "kafka.brokers and kafka.topics.dictionaryBuilt are required when kafka is enabled")
	}
	return nil
}

// applyEnvOverrides reads CD_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CD_CORPUS_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := os.Getenv("CD_CORPUS_RECURSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Corpus.Recursive = b
		}
	}
	if v := os.Getenv("CD_STOPWORDS_PATH"); v != "" {
		cfg.Stopwords.Path = v
	}
	if v := os.Getenv("CD_PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("CD_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("CD_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CD_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CD_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CD_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CD_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CD_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("CD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CD_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CD_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CD_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CD_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
