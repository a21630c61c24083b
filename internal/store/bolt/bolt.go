// Package bolt implements the stash store inside a single bbolt database
// file. Entry bytes live in one bucket and creation times in another,
// keyed by the same "{name}_{index}" encoding the directory layout uses
// on disk. Useful when a stash should travel as one file.
package bolt

import (
	"bytes"
	"fmt"
	"io"
	"time"

	bolt "go.etcd.io/bbolt"

	"stash/internal/logging"
	"stash/internal/store"
)

var logger = logging.For("store")

var (
	entriesBucket = []byte("entries")
	createdBucket = []byte("created")
)

// Store implements store.Store on top of bbolt (embedded B+ tree).
// Unlike the directory layout, index assignment and removal happen
// inside a single transaction.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the database at path. The timeout bounds the
// wait on the file lock when another stash process holds the database.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{entriesBucket, createdBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Push stores src as the next index for name. The whole stream is
// buffered in memory first; entry bytes become a single bucket value.
func (s *Store) Push(name string, src io.Reader) (store.Entry, error) {
	if !store.ValidName(name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, name)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return store.Entry{}, fmt.Errorf("reading input: %w", err)
	}

	var ent store.Entry
	err = s.db.Update(func(tx *bolt.Tx) error {
		next := nextIndexTx(tx, name)
		now := time.Now()
		if err := putEntryTx(tx, name, next, data, now); err != nil {
			return err
		}
		ent = store.Entry{Name: name, Index: next, CreatedAt: now, Size: int64(len(data))}
		return nil
	})
	if err != nil {
		return store.Entry{}, err
	}
	return ent, nil
}

// Append concatenates src onto the newest entry for name, creating
// index 0 when the stack is empty. The original creation time sticks.
func (s *Store) Append(name string, src io.Reader) (store.Entry, error) {
	if !store.ValidName(name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, name)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return store.Entry{}, fmt.Errorf("reading input: %w", err)
	}

	var ent store.Entry
	err = s.db.Update(func(tx *bolt.Tx) error {
		top, ok := newestTx(tx, name)
		if !ok {
			now := time.Now()
			if err := putEntryTx(tx, name, 0, data, now); err != nil {
				return err
			}
			ent = store.Entry{Name: name, Index: 0, CreatedAt: now, Size: int64(len(data))}
			return nil
		}

		key := []byte(store.Filename(name, top))
		old := tx.Bucket(entriesBucket).Get(key)
		merged := make([]byte, 0, len(old)+len(data))
		merged = append(merged, old...)
		merged = append(merged, data...)
		if err := tx.Bucket(entriesBucket).Put(key, merged); err != nil {
			return fmt.Errorf("storing entry %s: %w", key, err)
		}
		ent = store.Entry{Name: name, Index: top, CreatedAt: createdAtTx(tx, key), Size: int64(len(merged))}
		return nil
	})
	if err != nil {
		return store.Entry{}, err
	}
	return ent, nil
}

// List returns all entries newest first.
func (s *Store) List() ([]store.Entry, error) {
	var entries []store.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		eb := tx.Bucket(entriesBucket)
		return tx.Bucket(createdBucket).ForEach(func(k, v []byte) error {
			name, index, ok := store.ParseFilename(string(k))
			if !ok {
				logger.Warn("skipping undecodable entry key", "key", string(k))
				return nil
			}
			created, err := time.Parse(time.RFC3339Nano, string(v))
			if err != nil {
				logger.Warn("entry has unreadable creation time", "key", string(k), "error", err)
			}
			entries = append(entries, store.Entry{
				Name:      name,
				Index:     index,
				CreatedAt: created,
				Size:      int64(len(eb.Get(k))),
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	store.SortEntries(entries)
	return entries, nil
}

// Open resolves id and returns a reader over a copy of the entry bytes.
// The copy is taken because bucket values are only valid inside the
// transaction.
func (s *Store) Open(id store.ID) (store.Entry, io.ReadCloser, error) {
	if !store.ValidName(id.Name) {
		return store.Entry{}, nil, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, id.Name)
	}

	var (
		ent  store.Entry
		data []byte
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		index, err := resolveTx(tx, id)
		if err != nil {
			return err
		}
		key := []byte(store.Filename(id.Name, index))
		v := tx.Bucket(entriesBucket).Get(key)
		data = append([]byte(nil), v...)
		ent = store.Entry{Name: id.Name, Index: index, CreatedAt: createdAtTx(tx, key), Size: int64(len(v))}
		return nil
	})
	if err != nil {
		return store.Entry{}, nil, err
	}
	return ent, io.NopCloser(bytes.NewReader(data)), nil
}

// Pop writes the newest entry for name to dst and deletes it in the same
// transaction. A failed write aborts the transaction, so the entry
// survives.
func (s *Store) Pop(name string, dst io.Writer) (store.Entry, error) {
	if !store.ValidName(name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, name)
	}

	var ent store.Entry
	err := s.db.Update(func(tx *bolt.Tx) error {
		top, ok := newestTx(tx, name)
		if !ok {
			return fmt.Errorf("%w: %q", store.ErrNotFound, store.ID{Name: name, Index: store.Newest})
		}
		key := []byte(store.Filename(name, top))
		v := tx.Bucket(entriesBucket).Get(key)
		ent = store.Entry{Name: name, Index: top, CreatedAt: createdAtTx(tx, key), Size: int64(len(v))}
		if _, err := dst.Write(v); err != nil {
			return fmt.Errorf("writing entry %s: %w", ent.ID(), err)
		}
		return deleteEntryTx(tx, key)
	})
	if err != nil {
		return store.Entry{}, err
	}
	return ent, nil
}

// Delete resolves id and removes the entry.
func (s *Store) Delete(id store.ID) (store.Entry, error) {
	if !store.ValidName(id.Name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, id.Name)
	}

	var ent store.Entry
	err := s.db.Update(func(tx *bolt.Tx) error {
		index, err := resolveTx(tx, id)
		if err != nil {
			return err
		}
		key := []byte(store.Filename(id.Name, index))
		v := tx.Bucket(entriesBucket).Get(key)
		ent = store.Entry{Name: id.Name, Index: index, CreatedAt: createdAtTx(tx, key), Size: int64(len(v))}
		return deleteEntryTx(tx, key)
	})
	if err != nil {
		return store.Entry{}, err
	}
	return ent, nil
}

// Clear drops and recreates both buckets, returning how many entries
// were removed.
func (s *Store) Clear() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(createdBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			removed++
		}
		for _, bucket := range [][]byte{entriesBucket, createdBucket} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return fmt.Errorf("dropping bucket %s: %w", bucket, err)
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// putEntryTx writes the bytes and creation time for one entry. The
// created bucket is the authoritative key set: a key exists as an entry
// iff it has a creation time, which sidesteps nil-versus-empty value
// ambiguity for zero-length entries.
func putEntryTx(tx *bolt.Tx, name string, index int, data []byte, now time.Time) error {
	key := []byte(store.Filename(name, index))
	if err := tx.Bucket(entriesBucket).Put(key, data); err != nil {
		return fmt.Errorf("storing entry %s: %w", key, err)
	}
	if err := tx.Bucket(createdBucket).Put(key, []byte(now.Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("storing entry time %s: %w", key, err)
	}
	return nil
}

func deleteEntryTx(tx *bolt.Tx, key []byte) error {
	if err := tx.Bucket(entriesBucket).Delete(key); err != nil {
		return fmt.Errorf("deleting entry %s: %w", key, err)
	}
	if err := tx.Bucket(createdBucket).Delete(key); err != nil {
		return fmt.Errorf("deleting entry time %s: %w", key, err)
	}
	return nil
}

// resolveTx maps id to a concrete index, verifying the entry exists.
func resolveTx(tx *bolt.Tx, id store.ID) (int, error) {
	if id.IsNewest() {
		top, ok := newestTx(tx, id.Name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", store.ErrNotFound, id)
		}
		return top, nil
	}
	key := []byte(store.Filename(id.Name, id.Index))
	if tx.Bucket(createdBucket).Get(key) == nil {
		return 0, fmt.Errorf("%w: %q", store.ErrNotFound, id)
	}
	return id.Index, nil
}

func newestTx(tx *bolt.Tx, name string) (int, bool) {
	top, found := -1, false
	c := tx.Bucket(createdBucket).Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n, index, ok := store.ParseFilename(string(k))
		if !ok || n != name {
			continue
		}
		if index > top {
			top = index
			found = true
		}
	}
	return top, found
}

func nextIndexTx(tx *bolt.Tx, name string) int {
	top, found := newestTx(tx, name)
	if !found {
		return 0
	}
	return top + 1
}

func createdAtTx(tx *bolt.Tx, key []byte) time.Time {
	raw := tx.Bucket(createdBucket).Get(key)
	if raw == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}
