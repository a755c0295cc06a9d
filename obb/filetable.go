// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/creachadair/jsont"
	"github.com/creachadair/jsont/pretty"
	"github.com/creachadair/mds/mapset"
)

// EncodeFileTable encodes the names and compression flags of entries as a
// JSON array of objects,
//
//	[{"name": "Sorcery1.minjson", "compressed": true}, ...]
//
// in the order given. Offsets and lengths are not recorded, since Pack
// recomputes them.
func EncodeFileTable(entries []Entry) ([]byte, error) {
	buf := []byte{'['}
	for i, e := range entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, `{"name":`...)
		buf = jsont.AppendQuote(buf, e.Name)
		buf = append(buf, `,"compressed":`...)
		buf = strconv.AppendBool(buf, e.Compressed)
		buf = append(buf, '}')
	}
	buf = append(buf, ']')
	return pretty.Bytes(buf, pretty.Pretty)
}

// DecodeFileTable decodes a file table encoded by EncodeFileTable.
// The entries have names and compression flags, but no file data.
func DecodeFileTable(data []byte) ([]Entry, error) {
	t := jsont.NewTokenizer(data)
	if t.Current() != jsont.ArrayStart {
		return nil, fileTableError(t, "got %v, want %v", t.Current(), jsont.ArrayStart)
	}

	var out []Entry
	seen := mapset.New[string]()
	for tok := t.Next(); tok != jsont.ArrayEnd; tok = t.Next() {
		switch tok {
		case jsont.Comma:
			continue
		case jsont.ObjectStart:
		default:
			return nil, fileTableError(t, "got %v, want %v", tok, jsont.ObjectStart)
		}
		e, err := decodeEntry(t)
		if err != nil {
			return nil, err
		}
		if seen.Has(e.Name) {
			return nil, fmt.Errorf("file table: duplicate name %q", e.Name)
		}
		seen.Add(e.Name)
		out = append(out, e)
	}
	if tok := t.Next(); tok != jsont.End {
		return nil, fileTableError(t, "unexpected %v after file table", tok)
	}
	return out, nil
}

// decodeEntry decodes the object whose start is the current token of t, and
// leaves t at the end of the object.
func decodeEntry(t *jsont.Tokenizer) (Entry, error) {
	var e Entry
	var hasName bool
	for tok := t.Next(); tok != jsont.ObjectEnd; tok = t.Next() {
		if tok == jsont.Comma {
			continue
		} else if tok != jsont.FieldName {
			return e, fileTableError(t, "got %v, want field name", tok)
		}
		key, err := t.Unquote()
		if err != nil {
			return e, fileTableError(t, "invalid field name: %v", err)
		}
		val := t.Next()
		switch string(key) {
		case "name":
			if val != jsont.String {
				return e, fileTableError(t, "name: got %v, want string", val)
			}
			name, err := t.Unquote()
			if err != nil {
				return e, fileTableError(t, "invalid name: %v", err)
			}
			e.Name, hasName = string(name), true
		case "compressed":
			if val != jsont.True && val != jsont.False {
				return e, fileTableError(t, "compressed: got %v, want true or false", val)
			}
			e.Compressed = t.Bool()
		default:
			return e, fileTableError(t, "unknown field %q", key)
		}
	}
	if !hasName || e.Name == "" {
		return e, fileTableError(t, "entry has no name")
	}
	return e, nil
}

func fileTableError(t *jsont.Tokenizer, msg string, args ...any) error {
	if err := t.Err(); err != nil {
		return fmt.Errorf("file table: %w", err)
	}
	return fmt.Errorf("file table: at offset %d: %s", t.Span().Pos, fmt.Sprintf(msg, args...))
}

// WriteFileTable writes the file table sidecar for entries into dir.
func WriteFileTable(dir string, entries []Entry) error {
	data, err := EncodeFileTable(entries)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, FileTableName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

// ReadFileTable reads the file table sidecar from dir. If the sidecar does not
// exist or cannot be read or decoded, the error wraps ErrNoFileTable.
func ReadFileTable(dir string) ([]Entry, error) {
	path := filepath.Join(dir, FileTableName)
	if err := checkFile(path); err != nil {
		return nil, errors.Join(ErrNoFileTable, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrNoFileTable, &FileError{Path: path, Err: err})
	}
	entries, err := DecodeFileTable(data)
	if err != nil {
		return nil, errors.Join(ErrNoFileTable, &FileError{Path: path, Err: err})
	}
	return entries, nil
}

// checkFile reports an error unless path names a readable regular file.
func checkFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return &FileError{Path: path, Err: unwrapPath(err)}
	} else if !fi.Mode().IsRegular() {
		return &FileError{Path: path, Err: ErrNotRegular}
	}
	f, err := os.Open(path)
	if err != nil {
		return &FileError{Path: path, Err: unwrapPath(err)}
	}
	return f.Close()
}

// unwrapPath removes an *fs.PathError wrapper, since FileError already
// records the path.
func unwrapPath(err error) error {
	if pe, ok := err.(*fs.PathError); ok {
		return fmt.Errorf("%s: %w", pe.Op, pe.Err)
	}
	return err
}
