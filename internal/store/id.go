package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Newest is the ID index meaning "the most recent entry for the name".
const Newest = -1

// ID addresses a stash entry. Name may be empty (the anonymous stack) and
// Index may be Newest when the caller did not supply one.
type ID struct {
	Name  string
	Index int
}

// IsNewest reports whether the ID addresses the newest entry for its name
// rather than an exact index.
func (id ID) IsNewest() bool {
	return id.Index < 0
}

// String renders the canonical text form: "name:index", "name" when the
// index is unset, ":index" for anonymous entries. It inverts ParseID.
func (id ID) String() string {
	if id.IsNewest() {
		return id.Name
	}
	return id.Name + ":" + strconv.Itoa(id.Index)
}

// ParseID parses a user-supplied identifier. The string is split at the
// last ':' or '.' into name and index; with no separator the whole string
// is the name and the index is unset (newest). The index must be a
// non-negative integer and the name must satisfy ValidName.
//
//	"foo:3" -> {foo 3}    "foo" -> {foo Newest}
//	":2"    -> { 2}       ""    -> { Newest}
//	"foo:bar", "foo:", "a/b"    -> ErrInvalidID
func ParseID(s string) (ID, error) {
	name, idx := s, Newest

	if i := strings.LastIndexAny(s, ":."); i >= 0 {
		name = s[:i]
		n, err := strconv.ParseUint(s[i+1:], 10, 31)
		if err != nil {
			return ID{}, fmt.Errorf("%w: bad index %q", ErrInvalidID, s[i+1:])
		}
		idx = int(n)
	}

	if !ValidName(name) {
		return ID{}, fmt.Errorf("%w: bad name %q", ErrInvalidID, name)
	}
	return ID{Name: name, Index: idx}, nil
}

// ValidName reports whether name is usable as a stash name: any sequence
// (including empty) of ASCII letters, digits, '-' and '_'. Keeping the
// separator characters out of names is what makes ParseID unambiguous.
func ValidName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// Filename returns the on-disk encoding of an entry: "{name}_{index}".
func Filename(name string, index int) string {
	return name + "_" + strconv.Itoa(index)
}

// ParseFilename decodes an on-disk filename back into (name, index).
// Only canonical encodings decode (valid name, no leading zeros in the
// index); anything else is a foreign file and reports ok=false.
func ParseFilename(filename string) (name string, index int, ok bool) {
	i := strings.LastIndexByte(filename, '_')
	if i < 0 {
		return "", 0, false
	}
	name, idxStr := filename[:i], filename[i+1:]
	n, err := strconv.ParseUint(idxStr, 10, 31)
	if err != nil || idxStr != strconv.FormatUint(n, 10) {
		return "", 0, false
	}
	if !ValidName(name) {
		return "", 0, false
	}
	return name, int(n), true
}
