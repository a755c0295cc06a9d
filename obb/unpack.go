// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/creachadair/jsont/pretty"
)

// Unpack writes the members of r as files under dir, creating directories as
// needed. Members with JSON names are written in Pretty mode; a ".minjson"
// member is written with a ".json" extension (see Entry.DiskName).
//
// Unpack also writes the file table sidecar (FileTableName) listing the
// members in the order of their data, so that Pack reproduces the same
// layout. If the archive contains both a main story and an ink content
// member, Unpack writes the reference document produced by Stitch, named by
// ReferenceName.
//
// A failure to unpack one member does not stop the others. Unpack returns
// the errors for all failed members joined together.
func Unpack(r *Reader, dir string, opts *Options) error {
	var errs []error
	var story, ink *Entry

	entries := r.Entries()
	isStory, isInk := opts.mainStory(), opts.inkContent()
	for i, e := range entries {
		if isStory.MatchString(e.Name) {
			opts.logf("Found main story: %s", e.Name)
			story = &entries[i]
		} else if isInk.MatchString(e.Name) {
			opts.logf("Found ink content: %s", e.Name)
			ink = &entries[i]
		}
		if err := unpackEntry(r, e, dir); err != nil {
			errs = append(errs, err)
		}
	}

	byOffset := slices.SortedStableFunc(slices.Values(entries), func(a, b Entry) int {
		return cmp.Compare(a.Data.Offset, b.Data.Offset)
	})
	if err := WriteFileTable(dir, byOffset); err != nil {
		errs = append(errs, err)
	}

	if story != nil && ink != nil {
		ref := ReferenceName(story.DiskName())
		opts.logf("Creating reference file %s", ref)
		if err := writeReference(r, *story, *ink, filepath.Join(dir, filepath.FromSlash(ref))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// unpackEntry writes the contents of e to its disk name under dir.
func unpackEntry(r *Reader, e Entry, dir string) error {
	rel := filepath.FromSlash(e.DiskName())
	if !filepath.IsLocal(rel) {
		return fileErrorf(e.Name, "member name is not a local path")
	}
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &FileError{Path: path, Err: unwrapPath(err)}
	}
	data, err := r.ReadFile(e)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}

	// If a JSON member does not tokenize, its contents are written as stored
	// and the error is reported.
	var perr error
	if e.IsJSON() {
		if out, err := pretty.Bytes(data, pretty.Pretty); err != nil {
			perr = &FileError{Path: path, Err: fmt.Errorf("reformat: %w", err)}
		} else {
			data = out
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &FileError{Path: path, Err: unwrapPath(err)}
	}
	return perr
}

func writeReference(r *Reader, story, ink Entry, path string) error {
	doc, err := r.ReadFile(story)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	content, err := r.ReadFile(ink)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	stitched, err := Stitch(doc, content)
	if err != nil {
		return &FileError{Path: path, Err: fmt.Errorf("stitch %s: %w", story.Name, err)}
	}
	return writePretty(path, stitched)
}
