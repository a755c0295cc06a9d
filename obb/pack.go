// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/creachadair/jsont/pretty"
)

// A Manifest describes the contents of an unpacked archive directory.
type Manifest struct {
	Dir     string  // the directory holding the member files
	Entries []Entry // members in the order they will be packed

	MainStory  string // the name of the main story member, or ""
	InkContent string // the name of the ink content member, or ""
	Reference  string // the disk name of the reference document, or ""
}

// LoadManifest reads the file table sidecar from dir and checks that every
// member it lists is present as a readable regular file. If the file table
// names both a main story and an ink content member, the reference document
// derived from the main story must also be present.
//
// Failures concerning a specific file are reported as *FileError. A missing
// file wraps fs.ErrNotExist, an unreadable one wraps fs.ErrPermission, and
// a path that is not a regular file wraps ErrNotRegular.
func LoadManifest(dir string, opts *Options) (*Manifest, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, &FileError{Path: dir, Err: unwrapPath(err)}
	} else if !fi.IsDir() {
		return nil, &FileError{Path: dir, Err: ErrNotDir}
	}
	entries, err := ReadFileTable(dir)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Dir: dir, Entries: entries}
	isStory, isInk := opts.mainStory(), opts.inkContent()
	for _, e := range entries {
		if !filepath.IsLocal(filepath.FromSlash(e.Name)) {
			return nil, fileErrorf(e.Name, "member name is not a local path")
		}
		if err := checkFile(m.path(e.DiskName())); err != nil {
			return nil, err
		}
		if isStory.MatchString(e.Name) {
			m.MainStory = e.Name
		} else if isInk.MatchString(e.Name) {
			m.InkContent = e.Name
		}
	}
	if m.MainStory != "" && m.InkContent != "" {
		m.Reference = ReferenceName(diskName(m.MainStory))
		if err := checkFile(m.path(m.Reference)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) path(name string) string { return filepath.Join(m.Dir, filepath.FromSlash(name)) }

// Regenerate rewrites the main story and ink content files of m from the
// reference document, using Unstitch. Both are written in Pretty mode. If m
// has no reference document, Regenerate does nothing.
func (m *Manifest) Regenerate(opts *Options) error {
	if m.Reference == "" {
		return nil
	}
	opts.logf("Regenerating %s and %s from %s", m.InkContent, m.MainStory, m.Reference)
	refPath := m.path(m.Reference)
	ref, err := os.ReadFile(refPath)
	if err != nil {
		return &FileError{Path: refPath, Err: unwrapPath(err)}
	}
	story, ink, err := Unstitch(ref, m.InkContent)
	if err != nil {
		return &FileError{Path: refPath, Err: err}
	}
	if err := writePretty(m.path(diskName(m.InkContent)), ink); err != nil {
		return err
	}
	return writePretty(m.path(diskName(m.MainStory)), story)
}

func writePretty(path string, data []byte) error {
	out, err := pretty.Bytes(data, pretty.Pretty)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return &FileError{Path: path, Err: unwrapPath(err)}
	}
	return nil
}

// Pack regenerates the story files of m (see Regenerate) and writes an
// archive of its members to w, in the order of m.Entries.
func (m *Manifest) Pack(w io.WriteSeeker, opts *Options) error {
	if err := m.Regenerate(opts); err != nil {
		return err
	}
	aw, err := NewWriter(w, opts)
	if err != nil {
		return err
	}
	for _, e := range m.Entries {
		opts.logf("Packing file %s", e.Name)
		path := m.path(e.DiskName())
		data, err := os.ReadFile(path)
		if err != nil {
			return &FileError{Path: path, Err: unwrapPath(err)}
		}
		if _, err := aw.Add(e.Name, data, e.Compressed); err != nil {
			return &FileError{Path: path, Err: err}
		}
	}
	opts.logf("Writing file table (%d entries)", len(m.Entries))
	if err := aw.Close(); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// Pack is a convenience wrapper that loads the manifest of dir and packs it
// to w.
func Pack(dir string, w io.WriteSeeker, opts *Options) error {
	m, err := LoadManifest(dir, opts)
	if err != nil {
		return err
	}
	return m.Pack(w, opts)
}
