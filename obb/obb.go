// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package obb reads and writes AP_Pack! archives, the container format used
// to ship the story data of the Sorcery! games.
//
// An archive is a single blob holding a fixed header, a sequence of member
// data segments, a table of member names, and a file table:
//
//	offset  size  contents
//	0       8     signature "AP_Pack!"
//	8       4     total length of the archive
//	12      4     offset of the file table
//	16      ...   member data, each segment zero-padded to 16 bytes
//	...     ...   member names, concatenated, zero-padded to 16 bytes
//	...     20*n  file table, one record per member, sorted by name
//
// Each file table record holds five little-endian 32-bit integers: the
// offset and length of the member name, the offset and stored length of the
// member data, and the decompressed length of the member. A member is stored
// zlib-compressed exactly when its stored and decompressed lengths differ.
//
// The main story document of an archive refers to fragments of a companion
// "ink content" member by byte range. Unpack resolves these references into a
// self-contained reference document (see Stitch), and Pack splits the
// reference document back apart (see Unstitch) before packing.
package obb

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Signature is the magic string at the beginning of every archive.
const Signature = "AP_Pack!"

const (
	headerSize = len(Signature) + 8
	recordSize = 20 // bytes per file table record
	alignment  = 16 // data segments and the name table are padded to this

	// FileTableName is the name of the sidecar file, written by Unpack and
	// read by Pack, listing the members of an unpacked archive.
	FileTableName = "FileTable.ser"

	referenceSuffix = "-Reference.json"
)

var (
	// ErrBadSignature is reported for input that does not begin with the
	// archive signature.
	ErrBadSignature = errors.New("missing archive signature")

	// ErrCorrupt is reported for an archive whose header or file table is
	// inconsistent with its contents.
	ErrCorrupt = errors.New("corrupt archive")

	// ErrNotRegular is reported for a path that must be a regular file but is
	// not.
	ErrNotRegular = errors.New("not a regular file")

	// ErrNotDir is reported for a path that must be a directory but is not.
	ErrNotDir = errors.New("not a directory")

	// ErrNoFileTable is reported by Pack when the input directory has no
	// usable file table sidecar.
	ErrNoFileTable = errors.New("missing or invalid file table")
)

// FileError records a failure concerning a specific file.
type FileError struct {
	Path string // the file concerned
	Err  error  // the underlying error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// Unwrap supports error wrapping.
func (e *FileError) Unwrap() error { return e.Err }

func fileErrorf(path, msg string, args ...any) error {
	return &FileError{Path: path, Err: fmt.Errorf(msg, args...)}
}

// FileData describes the placement of a member's data in an archive.
type FileData struct {
	Offset     uint32 // offset of the stored data from the start of the archive
	Length     uint32 // stored length of the data
	FullLength uint32 // decompressed length of the data
}

// An Entry describes a single member of an archive.
type Entry struct {
	Name       string
	Data       FileData
	Compressed bool
}

// IsJSON reports whether the member holds JSON text, judging by its name.
func (e Entry) IsJSON() bool { return isJSONName(e.Name) }

// DiskName returns the relative slash-separated path where the member is
// stored in an unpacked directory. This is the name of the member, except
// that a ".minjson" extension is replaced by ".json".
func (e Entry) DiskName() string { return diskName(e.Name) }

func isJSONName(name string) bool {
	switch path.Ext(name) {
	case ".json", ".minjson", ".inkcontent":
		return true
	}
	return false
}

func diskName(name string) string {
	if base, ok := strings.CutSuffix(name, ".minjson"); ok {
		return base + ".json"
	}
	return name
}

// ReferenceName returns the name of the reference document derived from the
// name of a main story member: the story name up to its first ".", followed by
// "-Reference.json". For example, "Sorcery2.minjson" becomes
// "Sorcery2-Reference.json".
func ReferenceName(story string) string {
	dir, base := path.Split(story)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return dir + base + referenceSuffix
}

var (
	defaultMainStory  = regexp.MustCompile(`^Sorcery\d\.(min)?json$`)
	defaultInkContent = regexp.MustCompile(`^Sorcery\d\.inkcontent$`)
)

// Options control the behavior of Pack and Unpack. A nil *Options is ready
// for use and provides default values as described.
type Options struct {
	// MainStory matches the name of the main story member.
	// If nil, it matches names like "Sorcery3.json" and "Sorcery1.minjson".
	MainStory *regexp.Regexp

	// InkContent matches the name of the ink content member.
	// If nil, it matches names like "Sorcery3.inkcontent".
	InkContent *regexp.Regexp

	// Level is the zlib compression level for compressed members.
	// If zero, zlib.BestCompression is used.
	Level int

	// If not nil, Logf is called to report progress.
	Logf func(msg string, args ...any)
}

func (o *Options) mainStory() *regexp.Regexp {
	if o == nil || o.MainStory == nil {
		return defaultMainStory
	}
	return o.MainStory
}

func (o *Options) inkContent() *regexp.Regexp {
	if o == nil || o.InkContent == nil {
		return defaultInkContent
	}
	return o.InkContent
}

func (o *Options) level() int {
	if o == nil || o.Level == 0 {
		return zlib.BestCompression
	}
	return o.Level
}

func (o *Options) logf(msg string, args ...any) {
	if o != nil && o.Logf != nil {
		o.Logf(msg, args...)
	}
}

// padLen returns the number of zero bytes needed to pad n to alignment.
func padLen(n int64) int64 {
	if r := n % alignment; r != 0 {
		return alignment - r
	}
	return 0
}
