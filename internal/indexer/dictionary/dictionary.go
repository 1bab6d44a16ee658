// Package dictionary assigns the final integer ids. Ids are 1-based and
// follow the lexicographic order of the keys, so a dictionary depends only on
// its key set and never on the order in which keys were discovered.
package dictionary

import (
	"iter"
	"slices"
)

// Entry is one key and its id.
type Entry struct {
	Key string
	ID  int
}

// Dictionary is an immutable key to id mapping.
type Dictionary struct {
	entries []Entry
	ids     map[string]int
}

// FromKeys builds a dictionary over the distinct keys of keys.
func FromKeys(keys []string) *Dictionary {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	d := &Dictionary{
		entries: make([]Entry, len(sorted)),
		ids:     make(map[string]int, len(sorted)),
	}
	for i, k := range sorted {
		d.entries[i] = Entry{Key: k, ID: i + 1}
		d.ids[k] = i + 1
	}
	return d
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// ID returns the id of key.
func (d *Dictionary) ID(key string) (int, bool) {
	id, ok := d.ids[key]
	return id, ok
}

// Key returns the key holding id.
func (d *Dictionary) Key(id int) (string, bool) {
	if id < 1 || id > len(d.entries) {
		return "", false
	}
	return d.entries[id-1].Key, true
}

// Entries returns a copy of the entries in id order.
func (d *Dictionary) Entries() []Entry {
	return slices.Clone(d.entries)
}

// All yields key, id pairs in id order.
func (d *Dictionary) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, e := range d.entries {
			if !yield(e.Key, e.ID) {
				return
			}
		}
	}
}

// Keys returns the keys in id order.
func (d *Dictionary) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}
