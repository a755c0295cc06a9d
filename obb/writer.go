// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"slices"

	"github.com/creachadair/jsont/pretty"
	"github.com/creachadair/mds/mapset"
)

// A Writer writes an archive to an io.WriteSeeker. Members are added in
// order by Add, and the archive is complete once Close returns successfully.
type Writer struct {
	ws    io.WriteSeeker
	buf   *bufio.Writer
	off   int64 // total bytes written
	level int
	logf  func(string, ...any)

	entries []Entry // in the order added
	names   mapset.Set[string]
	closed  bool
}

var zeroPad [alignment]byte

// NewWriter writes the archive header to w and returns a Writer that adds
// members after it. The header is completed by Close, which requires seeking
// back to the start of the archive.
func NewWriter(w io.WriteSeeker, opts *Options) (*Writer, error) {
	aw := &Writer{
		ws:    w,
		buf:   bufio.NewWriter(w),
		level: opts.level(),
		logf:  opts.logf,
		names: mapset.New[string](),
	}
	aw.writeString(Signature)
	aw.write(zeroPad[:8]) // total length and file table offset, filled in by Close
	if err := aw.buf.Flush(); err != nil {
		return nil, err
	}
	return aw, nil
}

// Add adds a member with the given name and contents to the archive, and
// returns its entry. If the name has a JSON extension, the contents are
// stripped of whitespace before they are stored. If compressed is true, the
// contents are stored zlib-compressed, unless compression leaves the length
// unchanged, in which case the member is stored uncompressed.
func (w *Writer) Add(name string, data []byte, compressed bool) (Entry, error) {
	if w.closed {
		return Entry{}, errors.New("add to closed archive")
	} else if name == "" {
		return Entry{}, errors.New("empty member name")
	} else if w.names.Has(name) {
		return Entry{}, fmt.Errorf("duplicate member name %q", name)
	}

	if isJSONName(name) {
		// Ink content is a stream of values and keeps one per line.
		p := pretty.Printer{Mode: pretty.NoWhitespace, Lines: path.Ext(name) == ".inkcontent"}
		norm, err := p.Bytes(data)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: %w", name, err)
		}
		data = norm
	}
	stored := data
	if compressed {
		z, err := compress(data, w.level)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: compress: %w", name, err)
		}
		if len(z) == len(data) {
			w.logf("Storing %s uncompressed (no change in length)", name)
		} else {
			stored = z
		}
	}

	end := w.off + int64(len(stored))
	if end+padLen(end) > math.MaxUint32 {
		return Entry{}, fmt.Errorf("%s: archive too large", name)
	}
	e := Entry{
		Name: name,
		Data: FileData{
			Offset:     uint32(w.off),
			Length:     uint32(len(stored)),
			FullLength: uint32(len(data)),
		},
		Compressed: len(stored) != len(data),
	}
	w.write(stored)
	w.pad()
	if err := w.buf.Flush(); err != nil {
		return Entry{}, fmt.Errorf("%s: %w", name, err)
	}
	w.entries = append(w.entries, e)
	w.names.Add(name)
	return e, nil
}

// Entries returns the entries added to w so far, in the order added.
func (w *Writer) Entries() []Entry { return slices.Clone(w.entries) }

// Close writes the name table and file table, and fills in the archive
// header. Close does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return errors.New("archive is already closed")
	}
	w.closed = true

	nameOffset := make(map[string]uint32, len(w.entries))
	for _, e := range w.entries {
		nameOffset[e.Name] = uint32(w.off)
		w.writeString(e.Name)
	}
	w.pad()

	sorted := slices.SortedFunc(slices.Values(w.entries), compareNames)
	table := w.off
	rec := make([]byte, 0, recordSize)
	for _, e := range sorted {
		rec = record{
			NameOffset: nameOffset[e.Name],
			NameLength: uint32(len(e.Name)),
			DataOffset: e.Data.Offset,
			DataLength: e.Data.Length,
			FullLength: e.Data.FullLength,
		}.appendTo(rec[:0])
		w.write(rec)
	}
	if w.off > math.MaxUint32 {
		return errors.New("archive too large")
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}

	var hdr [8]byte
	le.PutUint32(hdr[0:], uint32(w.off))
	le.PutUint32(hdr[4:], uint32(table))
	if _, err := w.ws.Seek(int64(len(Signature)), io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if _, err := w.ws.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	_, err := w.ws.Seek(w.off, io.SeekStart)
	return err
}

// Write errors are sticky in the bufio.Writer and are reported by the next
// call to Flush.
func (w *Writer) write(b []byte) {
	n, _ := w.buf.Write(b)
	w.off += int64(n)
}

func (w *Writer) writeString(s string) {
	n, _ := w.buf.WriteString(s)
	w.off += int64(n)
}

func (w *Writer) pad() { w.write(zeroPad[:padLen(w.off)]) }
