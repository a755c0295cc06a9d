// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"cmp"
	"fmt"
	"slices"

	"go4.org/mem"
)

// A Reader provides access to the members of an archive held in memory.
type Reader struct {
	blob    []byte
	entries []Entry // in file table order
	sorted  bool    // entries are sorted by name
}

// NewReader checks the header and file table of the archive in blob and
// returns a Reader for its members. The Reader retains blob, which must not
// be modified while the Reader is in use.
//
// If blob does not begin with the archive signature, NewReader reports
// ErrBadSignature. If the header or file table is inconsistent with the size
// of blob, it reports an error wrapping ErrCorrupt.
func NewReader(blob []byte) (*Reader, error) {
	if !mem.HasPrefix(mem.B(blob), mem.S(Signature)) {
		return nil, ErrBadSignature
	}
	if len(blob) < headerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrCorrupt, len(blob))
	}
	total := le.Uint32(blob[len(Signature):])
	table := le.Uint32(blob[len(Signature)+4:])
	if uint64(total) != uint64(len(blob)) {
		return nil, fmt.Errorf("%w: header length %d does not match file length %d",
			ErrCorrupt, total, len(blob))
	}
	if table < uint32(headerSize) || table > total {
		return nil, fmt.Errorf("%w: file table offset %d out of range", ErrCorrupt, table)
	}
	if n := total - table; n%recordSize != 0 {
		return nil, fmt.Errorf("%w: file table length %d is not a multiple of %d",
			ErrCorrupt, n, recordSize)
	}

	r := &Reader{blob: blob, entries: make([]Entry, 0, (total-table)/recordSize)}
	for off := int(table); off < len(blob); off += recordSize {
		rec := parseRecord(blob[off : off+recordSize])
		i := len(r.entries)
		if !inRange(len(blob), rec.NameOffset, rec.NameLength) {
			return nil, fmt.Errorf("%w: entry %d: name out of range", ErrCorrupt, i)
		}
		if !inRange(len(blob), rec.DataOffset, rec.DataLength) {
			return nil, fmt.Errorf("%w: entry %d: data out of range", ErrCorrupt, i)
		}
		r.entries = append(r.entries, Entry{
			Name: string(blob[rec.NameOffset : rec.NameOffset+rec.NameLength]),
			Data: FileData{
				Offset:     rec.DataOffset,
				Length:     rec.DataLength,
				FullLength: rec.FullLength,
			},
			Compressed: rec.DataLength != rec.FullLength,
		})
	}
	r.sorted = slices.IsSortedFunc(r.entries, compareNames)
	return r, nil
}

func compareNames(a, b Entry) int { return cmp.Compare(a.Name, b.Name) }

// Len reports the number of members in the archive.
func (r *Reader) Len() int { return len(r.entries) }

// Entries returns the members of the archive in file table order.
func (r *Reader) Entries() []Entry { return slices.Clone(r.entries) }

// Lookup returns the member with the given name, if there is one.
func (r *Reader) Lookup(name string) (Entry, bool) {
	if r.sorted {
		i, ok := slices.BinarySearchFunc(r.entries, name, func(e Entry, name string) int {
			return cmp.Compare(e.Name, name)
		})
		if ok {
			return r.entries[i], true
		}
		return Entry{}, false
	}
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Raw returns the stored bytes of e, as a view of the archive.
// The caller must not modify the result. It reports an error if the data of
// e does not lie within the archive.
func (r *Reader) Raw(e Entry) ([]byte, error) {
	if !inRange(len(r.blob), e.Data.Offset, e.Data.Length) {
		return nil, fmt.Errorf("%s: data [%d, +%d) outside archive of %d bytes",
			e.Name, e.Data.Offset, e.Data.Length, len(r.blob))
	}
	return r.blob[e.Data.Offset : e.Data.Offset+e.Data.Length], nil
}

// ReadFile returns the decompressed contents of e. If e is not compressed,
// the result is a view of the archive and the caller must not modify it.
func (r *Reader) ReadFile(e Entry) ([]byte, error) {
	raw, err := r.Raw(e)
	if err != nil {
		return nil, err
	} else if !e.Compressed {
		return raw, nil
	}
	data, err := decompress(raw, e.Data.FullLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return data, nil
}
