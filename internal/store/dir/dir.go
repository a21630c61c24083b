// Package dir implements the stash store over a flat directory: one file
// per entry, named "{name}_{index}" directly under the store root. This is
// the reference layout. Entry bytes are stored untouched. Ordering comes
// from file modification times and the next index for a name from scanning
// the directory.
package dir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"stash/internal/logging"
	"stash/internal/store"
)

var logger = logging.For("store")

// Store is a directory-backed stash store rooted at a single flat
// directory. The root is injected so tests can point it at a temp dir.
type Store struct {
	root string
}

// Open ensures root exists and returns a store over it.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating stash dir: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) path(name string, index int) string {
	return filepath.Join(s.root, store.Filename(name, index))
}

// Push streams src into a fresh file for the next index. O_EXCL means a
// racing push surfaces as an error instead of a silent overwrite.
func (s *Store) Push(name string, src io.Reader) (store.Entry, error) {
	if !store.ValidName(name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, name)
	}
	next, err := s.nextIndex(name)
	if err != nil {
		return store.Entry{}, err
	}

	id := store.ID{Name: name, Index: next}
	f, err := os.OpenFile(s.path(name, next), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return store.Entry{}, fmt.Errorf("creating entry %s: %w", id, err)
	}
	_, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// No mid-stream recovery: a failed copy leaves the partial file behind.
		return store.Entry{}, fmt.Errorf("writing entry %s: %w", id, err)
	}
	return s.stat(name, next)
}

// Append streams src onto the newest entry for name, creating index 0 when
// the stack is empty.
func (s *Store) Append(name string, src io.Reader) (store.Entry, error) {
	if !store.ValidName(name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, name)
	}
	newest, err := s.newest(name)
	if errors.Is(err, store.ErrNotFound) {
		return s.Push(name, src)
	}
	if err != nil {
		return store.Entry{}, err
	}

	f, err := os.OpenFile(s.path(newest.Name, newest.Index), os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return store.Entry{}, fmt.Errorf("opening entry %s: %w", newest.ID(), err)
	}
	_, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("appending to entry %s: %w", newest.ID(), err)
	}
	return s.stat(newest.Name, newest.Index)
}

// List returns all entries newest first. Files that don't decode as
// entries are foreign (editor droppings, the bolt database) and are
// skipped with a warning.
func (s *Store) List() ([]store.Entry, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading stash dir: %w", err)
	}

	var entries []store.Entry
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		name, index, ok := store.ParseFilename(de.Name())
		if !ok {
			logger.Warn("skipping foreign file in stash dir", "file", de.Name())
			continue
		}
		fi, err := de.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // deleted mid-scan
			}
			return nil, fmt.Errorf("stat entry %s: %w", de.Name(), err)
		}
		entries = append(entries, store.Entry{
			Name:      name,
			Index:     index,
			CreatedAt: fi.ModTime(),
			Size:      fi.Size(),
		})
	}
	store.SortEntries(entries)
	return entries, nil
}

// Open resolves id and returns a streaming reader over the entry file.
func (s *Store) Open(id store.ID) (store.Entry, io.ReadCloser, error) {
	ent, err := s.resolve(id)
	if err != nil {
		return store.Entry{}, nil, err
	}
	f, err := os.Open(s.path(ent.Name, ent.Index))
	if err != nil {
		if os.IsNotExist(err) {
			return store.Entry{}, nil, fmt.Errorf("%w: %q", store.ErrNotFound, id)
		}
		return store.Entry{}, nil, fmt.Errorf("opening entry %s: %w", ent.ID(), err)
	}
	return ent, f, nil
}

// Pop streams the newest entry for name into dst, then removes it. The
// file is only removed after the copy fully succeeded.
func (s *Store) Pop(name string, dst io.Writer) (store.Entry, error) {
	ent, rc, err := s.Open(store.ID{Name: name, Index: store.Newest})
	if err != nil {
		return store.Entry{}, err
	}
	_, err = io.Copy(dst, rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("reading entry %s: %w", ent.ID(), err)
	}
	if err := os.Remove(s.path(ent.Name, ent.Index)); err != nil {
		return store.Entry{}, fmt.Errorf("deleting entry %s: %w", ent.ID(), err)
	}
	return ent, nil
}

// Delete resolves id and removes the matching entry file.
func (s *Store) Delete(id store.ID) (store.Entry, error) {
	ent, err := s.resolve(id)
	if err != nil {
		return store.Entry{}, err
	}
	if err := os.Remove(s.path(ent.Name, ent.Index)); err != nil {
		if os.IsNotExist(err) {
			return store.Entry{}, fmt.Errorf("%w: %q", store.ErrNotFound, id)
		}
		return store.Entry{}, fmt.Errorf("deleting entry %s: %w", ent.ID(), err)
	}
	return ent, nil
}

// Clear removes every entry. Foreign files are left untouched.
func (s *Store) Clear() (int, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading stash dir: %w", err)
	}

	removed := 0
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if _, _, ok := store.ParseFilename(de.Name()); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, de.Name())); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("deleting %s: %w", de.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// resolve maps an ID to the concrete entry it addresses.
func (s *Store) resolve(id store.ID) (store.Entry, error) {
	if !store.ValidName(id.Name) {
		return store.Entry{}, fmt.Errorf("%w: bad name %q", store.ErrInvalidID, id.Name)
	}
	if id.IsNewest() {
		return s.newest(id.Name)
	}
	return s.stat(id.Name, id.Index)
}

// newest finds the highest index stored for name.
func (s *Store) newest(name string) (store.Entry, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return store.Entry{}, fmt.Errorf("reading stash dir: %w", err)
	}
	top := -1
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		n, index, ok := store.ParseFilename(de.Name())
		if !ok || n != name {
			continue
		}
		if index > top {
			top = index
		}
	}
	if top < 0 {
		return store.Entry{}, fmt.Errorf("%w: %q", store.ErrNotFound, store.ID{Name: name, Index: store.Newest})
	}
	return s.stat(name, top)
}

// nextIndex is max stored index for name + 1, or 0 when none exist.
// Scan-and-increment is not atomic across processes; Push's O_EXCL turns
// a lost race into an error instead of an overwrite.
func (s *Store) nextIndex(name string) (int, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading stash dir: %w", err)
	}
	next := 0
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		n, index, ok := store.ParseFilename(de.Name())
		if !ok || n != name {
			continue
		}
		if index >= next {
			next = index + 1
		}
	}
	return next, nil
}

func (s *Store) stat(name string, index int) (store.Entry, error) {
	fi, err := os.Stat(s.path(name, index))
	if err != nil {
		if os.IsNotExist(err) {
			return store.Entry{}, fmt.Errorf("%w: %q", store.ErrNotFound, store.ID{Name: name, Index: index})
		}
		return store.Entry{}, fmt.Errorf("stat entry %s: %w", store.ID{Name: name, Index: index}, err)
	}
	return store.Entry{
		Name:      name,
		Index:     index,
		CreatedAt: fi.ModTime(),
		Size:      fi.Size(),
	}, nil
}
