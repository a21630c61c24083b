// Package store defines the stash store: a mapping from (name, index)
// identifiers to stored byte blobs. Entries sharing a name form a stack
// (push assigns the next index, pop removes the newest), and every entry
// is also addressable directly by its exact (name, index) pair.
package store

import (
	"io"
	"sort"
	"time"
)

// Entry describes one stored blob.
type Entry struct {
	Name      string
	Index     int
	CreatedAt time.Time
	Size      int64
}

// ID returns the exact identifier of the entry.
func (e Entry) ID() ID {
	return ID{Name: e.Name, Index: e.Index}
}

// Store is the stash store contract. The directory backend is the reference
// implementation; the interface allows swapping in an embedded KV backend
// without touching the CLI. Implementations are not safe for concurrent use
// across processes: two simultaneous pushes may race on the next index.
type Store interface {
	// Push streams src into a new entry for name, assigning the next free
	// index (0 for an empty stack). Existing entries are never overwritten.
	Push(name string, src io.Reader) (Entry, error)

	// Append streams src onto the end of the newest entry for name,
	// creating index 0 if the stack is empty. The only operation that
	// modifies an entry in place.
	Append(name string, src io.Reader) (Entry, error)

	// List returns all entries, newest first.
	List() ([]Entry, error)

	// Open resolves id (an unset index means the newest entry for the
	// name) and returns the entry with a reader over its bytes. The caller
	// closes the reader. Returns ErrNotFound if no entry matches.
	Open(id ID) (Entry, io.ReadCloser, error)

	// Pop streams the newest entry for name into dst, then deletes it.
	// The entry survives if the copy fails. Returns ErrNotFound when the
	// stack is empty.
	Pop(name string, dst io.Writer) (Entry, error)

	// Delete resolves id and removes the matching entry, reporting which
	// one was removed. Returns ErrNotFound if no entry matches.
	Delete(id ID) (Entry, error)

	// Clear removes every entry unconditionally and reports how many were
	// removed.
	Clear() (int, error)
}

// SortEntries orders entries newest first: creation time descending, ties
// broken by index descending, then name ascending, so the order is
// deterministic even when timestamps collide.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Index != b.Index {
			return a.Index > b.Index
		}
		return a.Name < b.Name
	})
}
