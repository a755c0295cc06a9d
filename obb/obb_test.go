// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/jsont/internal/testutil"
	"github.com/creachadair/jsont/obb"
	"github.com/creachadair/jsont/pretty"
	"github.com/google/go-cmp/cmp"
)

type member struct {
	name       string
	data       string
	compressed bool
}

// buildArchive writes an archive of members and returns its contents.
func buildArchive(t *testing.T, members ...member) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.obb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	w, err := obb.NewWriter(f, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, m := range members {
		if _, err := w.Add(m.name, []byte(m.data), m.compressed); err != nil {
			t.Fatalf("Add %q: %v", m.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close file: %v", err)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return blob
}

// sameTokens reports a test error if a and b do not have the same tokens.
func sameTokens(t *testing.T, label string, a, b []byte) {
	t.Helper()
	at, err := testutil.Tokens(a)
	if err != nil {
		t.Fatalf("%s: tokenize first input: %v", label, err)
	}
	bt, err := testutil.Tokens(b)
	if err != nil {
		t.Fatalf("%s: tokenize second input: %v", label, err)
	}
	if diff := cmp.Diff(at, bt); diff != "" {
		t.Errorf("%s: tokens differ (-first, +second):\n%s", label, diff)
	}
}

var repetitive = strings.Repeat("It was a dark and stormy night. ", 40)

func TestWriterReader(t *testing.T) {
	blob := buildArchive(t,
		member{"z/notes.txt", repetitive, true},
		member{"a.json", `{ "x": [1, 2],  "y": "z" }`, true},
		member{"b.bin", "\x00\x01\x02\x03binary", false},
	)

	r, err := obb.NewReader(blob)
	if err != nil {
		t.Fatalf("NewReader: unexpected error: %v", err)
	}
	if got := string(blob[:8]); got != obb.Signature {
		t.Errorf("Signature: got %q, want %q", got, obb.Signature)
	}

	var names []string
	for _, e := range r.Entries() {
		names = append(names, e.Name)
		if e.Data.Offset%16 != 0 {
			t.Errorf("Entry %q: offset %d is not aligned", e.Name, e.Data.Offset)
		}
	}
	if diff := cmp.Diff([]string{"a.json", "b.bin", "z/notes.txt"}, names); diff != "" {
		t.Errorf("Entry names (-want, +got):\n%s", diff)
	}

	tests := []struct {
		name       string
		want       string
		compressed bool
	}{
		{"a.json", `{"x":[1,2],"y":"z"}`, true},
		{"b.bin", "\x00\x01\x02\x03binary", false},
		{"z/notes.txt", repetitive, true},
	}
	for _, tc := range tests {
		e, ok := r.Lookup(tc.name)
		if !ok {
			t.Errorf("Lookup %q: not found", tc.name)
			continue
		}
		if e.Compressed != tc.compressed {
			t.Errorf("Entry %q: compressed=%v, want %v", tc.name, e.Compressed, tc.compressed)
		}
		if int(e.Data.FullLength) != len(tc.want) {
			t.Errorf("Entry %q: full length %d, want %d", tc.name, e.Data.FullLength, len(tc.want))
		}
		data, err := r.ReadFile(e)
		if err != nil {
			t.Errorf("ReadFile %q: unexpected error: %v", tc.name, err)
			continue
		}
		if diff := cmp.Diff(tc.want, string(data)); diff != "" {
			t.Errorf("ReadFile %q (-want, +got):\n%s", tc.name, diff)
		}
	}
	if e, ok := r.Lookup("nonesuch"); ok {
		t.Errorf("Lookup nonesuch: got %+v, want not found", e)
	}
}

func TestWriterErrors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.obb"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	w, err := obb.NewWriter(f, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Add("x.txt", []byte("hello"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := w.Add("x.txt", []byte("again"), false); err == nil {
		t.Error("Add duplicate: got nil, want error")
	}
	if _, err := w.Add("", []byte("nameless"), false); err == nil {
		t.Error("Add empty name: got nil, want error")
	}
	if _, err := w.Add("bad.json", []byte(`{"a":1,}`), true); err == nil {
		t.Error("Add invalid JSON: got nil, want error")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Add("late.txt", nil, false); err == nil {
		t.Error("Add after close: got nil, want error")
	}
	if err := w.Close(); err == nil {
		t.Error("Close twice: got nil, want error")
	}
}

func TestReaderErrors(t *testing.T) {
	good := buildArchive(t, member{"a.txt", "alpha", false}, member{"b.txt", repetitive, true})

	// patch returns a copy of good with b written at offset.
	patch := func(offset int, b ...byte) []byte {
		out := bytes.Clone(good)
		copy(out[offset:], b)
		return out
	}
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"Empty", nil, obb.ErrBadSignature},
		{"NoSignature", []byte("PK\x03\x04 this is a zip file"), obb.ErrBadSignature},
		{"WrongSignature", patch(0, 'X'), obb.ErrBadSignature},
		{"TruncatedHeader", []byte(obb.Signature + "\x10\x00"), obb.ErrCorrupt},
		{"Truncated", good[:len(good)-1], obb.ErrCorrupt},
		{"Extended", append(bytes.Clone(good), 0), obb.ErrCorrupt},
		{"LengthMismatch", patch(8, 0xff), obb.ErrCorrupt},
		{"TableOffsetTooLarge", patch(12, 0xff, 0xff, 0xff, 0x7f), obb.ErrCorrupt},
		{"TableOffsetInHeader", patch(12, 4, 0, 0, 0), obb.ErrCorrupt},
		{"TableMisaligned", patch(12, good[12]+1), obb.ErrCorrupt},
		{"NameOutOfRange", patch(len(good)-20, 0xff, 0xff, 0xff, 0xff), obb.ErrCorrupt},
		{"DataOutOfRange", patch(len(good)-20+12, 0xff, 0xff, 0xff, 0x0f), obb.ErrCorrupt},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := obb.NewReader(tc.input)
			if !errors.Is(err, tc.want) {
				t.Errorf("NewReader: got (%v, %v), want error %v", r, err, tc.want)
			}
		})
	}

	t.Run("BadCompressedData", func(t *testing.T) {
		r, err := obb.NewReader(good)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		e, ok := r.Lookup("b.txt")
		if !ok || !e.Compressed {
			t.Fatalf("Lookup b.txt: got %+v, %v; want compressed entry", e, ok)
		}
		bad := bytes.Clone(good)
		for i := range 8 {
			bad[int(e.Data.Offset)+i] ^= 0xff
		}
		br, err := obb.NewReader(bad)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		if data, err := br.ReadFile(e); err == nil {
			t.Errorf("ReadFile: got %q, want error", data)
		}
	})

	t.Run("ForeignEntry", func(t *testing.T) {
		r, err := obb.NewReader(good)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		for _, d := range []obb.FileData{
			{Offset: uint32(len(good)), Length: 1, FullLength: 1},
			{Offset: 16, Length: uint32(len(good)), FullLength: 1},
			{Offset: 0xffffffff, Length: 0xffffffff, FullLength: 5},
		} {
			e := obb.Entry{Name: "other.txt", Data: d}
			if raw, err := r.Raw(e); err == nil {
				t.Errorf("Raw %+v: got %q, want error", d, raw)
			}
			if data, err := r.ReadFile(e); err == nil {
				t.Errorf("ReadFile %+v: got %q, want error", d, data)
			}
		}
	})
}

func TestNames(t *testing.T) {
	tests := []struct {
		name, disk, ref string
		json            bool
	}{
		{"Sorcery1.minjson", "Sorcery1.json", "Sorcery1-Reference.json", true},
		{"Sorcery3.json", "Sorcery3.json", "Sorcery3-Reference.json", true},
		{"Sorcery3.inkcontent", "Sorcery3.inkcontent", "Sorcery3-Reference.json", true},
		{"art/map.tar.gz", "art/map.tar.gz", "art/map-Reference.json", false},
		{"README", "README", "README-Reference.json", false},
	}
	for _, tc := range tests {
		e := obb.Entry{Name: tc.name}
		if got := e.DiskName(); got != tc.disk {
			t.Errorf("DiskName %q: got %q, want %q", tc.name, got, tc.disk)
		}
		if got := e.IsJSON(); got != tc.json {
			t.Errorf("IsJSON %q: got %v, want %v", tc.name, got, tc.json)
		}
		if got := obb.ReferenceName(tc.name); got != tc.ref {
			t.Errorf("ReferenceName %q: got %q, want %q", tc.name, got, tc.ref)
		}
	}
}

func TestFileTable(t *testing.T) {
	entries := []obb.Entry{
		{Name: "Sorcery1.minjson", Compressed: true},
		{Name: `odd "name"`, Compressed: false},
	}
	enc, err := obb.EncodeFileTable(entries)
	if err != nil {
		t.Fatalf("EncodeFileTable: unexpected error: %v", err)
	}
	const want = "[\n\t{\n\t\t\"name\": \"Sorcery1.minjson\",\n\t\t\"compressed\": true\n\t},\n" +
		"\t{\n\t\t\"name\": \"odd \\\"name\\\"\",\n\t\t\"compressed\": false\n\t}\n]\n"
	if diff := cmp.Diff(want, string(enc)); diff != "" {
		t.Errorf("EncodeFileTable (-want, +got):\n%s", diff)
	}
	dec, err := obb.DecodeFileTable(enc)
	if err != nil {
		t.Fatalf("DecodeFileTable: unexpected error: %v", err)
	}
	if diff := cmp.Diff(entries, dec); diff != "" {
		t.Errorf("DecodeFileTable (-want, +got):\n%s", diff)
	}

	for _, bad := range []string{
		``,
		`{}`,
		`[{"name":"a"},{"name":"a"}]`,
		`[{"name":"a","size":3}]`,
		`[{"compressed":true}]`,
		`[{"name":""}]`,
		`[{"name":1}]`,
		`[{"name":"a","compressed":"yes"}]`,
		`[{"name":"a"}`,
		`[{"name":"a"}] []`,
		`[1]`,
	} {
		if got, err := obb.DecodeFileTable([]byte(bad)); err == nil {
			t.Errorf("DecodeFileTable %#q: got %+v, want error", bad, got)
		}
	}
}

const (
	// A main story document that refers to stitches in inkData.
	storyDoc = `{"title":"T","indexed-content":{"filename":"Sorcery1.inkcontent",` +
		`"ranges":{"k1":"0 8","k2":"8 11"}},"n":1}`
	inkData = "[\"a\",1]\n{\"x\":true}\n"

	// The reference document for storyDoc and inkData.
	stitchedDoc = `{"title":"T","stitches":{"k1":{"content":["a",1]},"k2":{"x":true}},"n":1}`
)

func TestStitch(t *testing.T) {
	got, err := obb.Stitch([]byte(storyDoc), []byte(inkData))
	if err != nil {
		t.Fatalf("Stitch: unexpected error: %v", err)
	}
	want := `{"title":"T","stitches":{"k1":{"content":["a",1]` + "\n" + `},"k2":{"x":true}` + "\n" + `},"n":1}`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("Stitch (-want, +got):\n%s", diff)
	}
	flat, err := pretty.Bytes(got, pretty.NoWhitespace)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if diff := cmp.Diff(stitchedDoc, string(flat)); diff != "" {
		t.Errorf("Flattened (-want, +got):\n%s", diff)
	}
}

func TestStitchErrors(t *testing.T) {
	tests := []struct {
		name, doc string
	}{
		{"NotObject", `{"indexed-content":[]}`},
		{"UnknownField", `{"indexed-content":{"other":1}}`},
		{"RangesNotObject", `{"indexed-content":{"ranges":"0 8"}}`},
		{"RangeNotString", `{"indexed-content":{"ranges":{"k":8}}}`},
		{"BadRange", `{"indexed-content":{"ranges":{"k":"zero 8"}}}`},
		{"OffsetOutOfRange", `{"indexed-content":{"ranges":{"k":"100 8"}}}`},
		{"EmptyRange", `{"indexed-content":{"ranges":{"k":"0 0"}}}`},
		{"FilenameNotString", `{"indexed-content":{"filename":7}}`},
		{"Malformed", `{"indexed-content":{"ranges":{"k":"0 8",}}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := obb.Stitch([]byte(tc.doc), []byte(inkData))
			if err == nil {
				t.Errorf("Stitch %#q: got %#q, want error", tc.doc, got)
			}
		})
	}

	// A range longer than the ink content is clamped.
	got, err := obb.Stitch([]byte(`{"indexed-content":{"ranges":{"k":"8 1000"}}}`), []byte(inkData))
	if err != nil {
		t.Fatalf("Stitch: unexpected error: %v", err)
	}
	if want := "{\"stitches\":{\"k\":{\"x\":true}\n}}"; string(got) != want {
		t.Errorf("Stitch: got %#q, want %#q", got, want)
	}
}

func TestUnstitch(t *testing.T) {
	story, ink, err := obb.Unstitch([]byte(stitchedDoc), "Sorcery1.inkcontent")
	if err != nil {
		t.Fatalf("Unstitch: unexpected error: %v", err)
	}
	if diff := cmp.Diff(storyDoc, string(story)); diff != "" {
		t.Errorf("Story (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(inkData, string(ink)); diff != "" {
		t.Errorf("Ink (-want, +got):\n%s", diff)
	}

	for _, bad := range []string{
		`{"stitches":[]}`,
		`{"stitches":{"k":1}}`,
		`{"stitches":{"k":{},"k":{}}}`,
		`{"stitches":{"k":{"a":1,}}}`,
	} {
		if s, i, err := obb.Unstitch([]byte(bad), "x"); err == nil {
			t.Errorf("Unstitch %#q: got (%#q, %#q), want error", bad, s, i)
		}
	}
}

func TestStitchInverse(t *testing.T) {
	// A reference document with formatting and stitches of several shapes.
	const ref = `{
	"title": "The Shamutanti Hills",
	"stitches": {
		"plain": {"content": ["Hello", {"->": "next"}, 1.50]},
		"extra": {"content": [], "tags": ["x"]},
		"scalar": {"content": 5},
		"empty": {},
		"nested": {"a": {"b": [[], {}]}}
	},
	"root": [{"stitches": {"inner": {"content": [true]}}}]
}`
	story, ink, err := obb.Unstitch([]byte(ref), "Sorcery9.inkcontent")
	if err != nil {
		t.Fatalf("Unstitch: unexpected error: %v", err)
	}
	if n := bytes.Count(ink, []byte("\n")); n != 6 {
		t.Errorf("Ink content has %d lines, want 6:\n%s", n, ink)
	}
	back, err := obb.Stitch(story, ink)
	if err != nil {
		t.Fatalf("Stitch: unexpected error: %v", err)
	}
	sameTokens(t, "Stitch(Unstitch(ref))", []byte(ref), back)

	// The other direction: the story survives a stitch and unstitch.
	ref2, err := obb.Stitch(story, ink)
	if err != nil {
		t.Fatalf("Stitch: unexpected error: %v", err)
	}
	story2, ink2, err := obb.Unstitch(ref2, "Sorcery9.inkcontent")
	if err != nil {
		t.Fatalf("Unstitch: unexpected error: %v", err)
	}
	if diff := cmp.Diff(string(story), string(story2)); diff != "" {
		t.Errorf("Story (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(string(ink), string(ink2)); diff != "" {
		t.Errorf("Ink (-want, +got):\n%s", diff)
	}
}

// storyMembers are the contents of a small story archive.
var storyMembers = []member{
	{"Sorcery1.minjson", storyDoc, true},
	{"Sorcery1.inkcontent", inkData, true},
	{"art/logo.png", "\x89PNG\r\n\x1a\n not really", false},
	{"notes.txt", repetitive, true},
	{"config.json", `{"volume": 11, "tags": []}`, false},
}

func TestUnpackPack(t *testing.T) {
	blob := buildArchive(t, storyMembers...)
	r, err := obb.NewReader(blob)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	dir := t.TempDir()
	var logged []string
	opts := &obb.Options{Logf: func(msg string, args ...any) { logged = append(logged, msg) }}
	if err := obb.Unpack(r, dir, opts); err != nil {
		t.Fatalf("Unpack: unexpected error: %v", err)
	}
	if len(logged) == 0 {
		t.Error("Unpack did not log any progress")
	}

	readDir := func(name string) []byte {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("Read unpacked file: %v", err)
		}
		return data
	}

	// Binary members are unpacked as stored.
	if got := string(readDir("art/logo.png")); got != storyMembers[2].data {
		t.Errorf("art/logo.png: got %q, want %q", got, storyMembers[2].data)
	}
	if got := string(readDir("notes.txt")); got != repetitive {
		t.Errorf("notes.txt: got %q, want %q", got, repetitive)
	}

	// JSON members are pretty-printed, and .minjson is renamed.
	story := readDir("Sorcery1.json")
	if !bytes.Contains(story, []byte("\n\t\"title\": \"T\",\n")) {
		t.Errorf("Sorcery1.json is not pretty-printed:\n%s", story)
	}
	sameTokens(t, "Sorcery1.json", []byte(storyDoc), story)
	sameTokens(t, "config.json", []byte(storyMembers[4].data), readDir("config.json"))
	sameTokens(t, "Sorcery1-Reference.json", []byte(stitchedDoc), readDir("Sorcery1-Reference.json"))

	// The sidecar lists the members in the order they were stored.
	table, err := obb.ReadFileTable(dir)
	if err != nil {
		t.Fatalf("ReadFileTable: %v", err)
	}
	var want []obb.Entry
	for _, m := range storyMembers {
		want = append(want, obb.Entry{Name: m.name, Compressed: m.compressed})
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("File table (-want, +got):\n%s", diff)
	}

	// Pack the directory and check that the result matches the original.
	out, err := os.Create(filepath.Join(t.TempDir(), "repack.obb"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer out.Close()
	if err := obb.Pack(dir, out, nil); err != nil {
		t.Fatalf("Pack: unexpected error: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	blob2, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	r2, err := obb.NewReader(blob2)
	if err != nil {
		t.Fatalf("NewReader repacked: %v", err)
	}
	if diff := cmp.Diff(r.Entries(), r2.Entries()); diff != "" {
		t.Errorf("Repacked entries (-want, +got):\n%s", diff)
	}
	for _, e := range r.Entries() {
		d1, err := r.ReadFile(e)
		if err != nil {
			t.Fatalf("ReadFile %q: %v", e.Name, err)
		}
		e2, ok := r2.Lookup(e.Name)
		if !ok {
			t.Errorf("Repacked archive is missing %q", e.Name)
			continue
		}
		d2, err := r2.ReadFile(e2)
		if err != nil {
			t.Fatalf("ReadFile repacked %q: %v", e.Name, err)
		}
		if diff := cmp.Diff(string(d1), string(d2)); diff != "" {
			t.Errorf("Repacked %q (-want, +got):\n%s", e.Name, diff)
		}
	}
}

func TestRepackEditedReference(t *testing.T) {
	blob := buildArchive(t, storyMembers...)
	r, err := obb.NewReader(blob)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	dir := t.TempDir()
	if err := obb.Unpack(r, dir, nil); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	// Edit a stitch in the reference document and repack.
	const edited = `{"title":"T","stitches":{"k1":{"content":["a",1,"longer"]},` +
		`"k2":{"x":false},"k3":{"content":[]}},"n":1}`
	refPath := filepath.Join(dir, "Sorcery1-Reference.json")
	if err := os.WriteFile(refPath, []byte(edited), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := obb.LoadManifest(dir, nil)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.MainStory != "Sorcery1.minjson" || m.InkContent != "Sorcery1.inkcontent" || m.Reference != "Sorcery1-Reference.json" {
		t.Errorf("LoadManifest: got %+v", m)
	}
	path := filepath.Join(t.TempDir(), "edited.obb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := m.Pack(f, nil); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	f.Close()

	blob2, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	r2, err := obb.NewReader(blob2)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	read := func(name string) []byte {
		t.Helper()
		e, ok := r2.Lookup(name)
		if !ok {
			t.Fatalf("Lookup %q: not found", name)
		}
		data, err := r2.ReadFile(e)
		if err != nil {
			t.Fatalf("ReadFile %q: %v", name, err)
		}
		return data
	}
	ink := read("Sorcery1.inkcontent")
	if want := "[\"a\",1,\"longer\"]\n{\"x\":false}\n[]\n"; string(ink) != want {
		t.Errorf("Ink content: got %#q, want %#q", ink, want)
	}
	stitched, err := obb.Stitch(read("Sorcery1.minjson"), ink)
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	sameTokens(t, "Repacked reference", []byte(edited), stitched)
}

func TestPackErrors(t *testing.T) {
	writeFiles := func(t *testing.T, files map[string]string) string {
		t.Helper()
		dir := t.TempDir()
		for name, data := range files {
			path := filepath.Join(dir, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			if err := os.WriteFile(path, []byte(data), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
		}
		return dir
	}
	const oneFile = "[{\"name\":\"a.txt\",\"compressed\":false}]"

	t.Run("NotDir", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"plain": "x"})
		_, err := obb.LoadManifest(filepath.Join(dir, "plain"), nil)
		if !errors.Is(err, obb.ErrNotDir) {
			t.Errorf("LoadManifest: got %v, want %v", err, obb.ErrNotDir)
		}
	})
	t.Run("NoDir", func(t *testing.T) {
		_, err := obb.LoadManifest(filepath.Join(t.TempDir(), "nonesuch"), nil)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("LoadManifest: got %v, want %v", err, fs.ErrNotExist)
		}
	})
	t.Run("NoFileTable", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"a.txt": "alpha"})
		_, err := obb.LoadManifest(dir, nil)
		if !errors.Is(err, obb.ErrNoFileTable) {
			t.Errorf("LoadManifest: got %v, want %v", err, obb.ErrNoFileTable)
		}
	})
	t.Run("BadFileTable", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{obb.FileTableName: "[{]"})
		_, err := obb.LoadManifest(dir, nil)
		var fe *obb.FileError
		if !errors.As(err, &fe) || filepath.Base(fe.Path) != obb.FileTableName {
			t.Errorf("LoadManifest: got %v, want error for %s", err, obb.FileTableName)
		}
	})
	t.Run("MissingMember", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{obb.FileTableName: oneFile})
		_, err := obb.LoadManifest(dir, nil)
		if !errors.Is(err, fs.ErrNotExist) || errors.Is(err, obb.ErrNoFileTable) {
			t.Errorf("LoadManifest: got %v, want %v", err, fs.ErrNotExist)
		}
	})
	t.Run("MemberNotRegular", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{
			obb.FileTableName: oneFile,
			"a.txt/inner":     "x",
		})
		_, err := obb.LoadManifest(dir, nil)
		if !errors.Is(err, obb.ErrNotRegular) {
			t.Errorf("LoadManifest: got %v, want %v", err, obb.ErrNotRegular)
		}
	})
	t.Run("MissingReference", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{
			obb.FileTableName: `[{"name":"Sorcery2.json"},{"name":"Sorcery2.inkcontent"}]`,
			"Sorcery2.json":       "{}",
			"Sorcery2.inkcontent": "",
		})
		_, err := obb.LoadManifest(dir, nil)
		var fe *obb.FileError
		if !errors.As(err, &fe) || filepath.Base(fe.Path) != "Sorcery2-Reference.json" {
			t.Errorf("LoadManifest: got %v, want error for the reference file", err)
		}
	})
	t.Run("UnsafeName", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{
			obb.FileTableName: `[{"name":"../escape.txt"}]`,
		})
		if _, err := obb.LoadManifest(dir, nil); err == nil {
			t.Error("LoadManifest: got nil, want error")
		}
	})
}

func TestUnpackErrors(t *testing.T) {
	blob := buildArchive(t,
		member{"good.txt", "fine", false},
		member{"../outside.txt", "escape", false},
		member{"broken.json", "{}", false},
	)
	// Corrupt the stored JSON so that it no longer tokenizes.
	r, err := obb.NewReader(blob)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	e, _ := r.Lookup("broken.json")
	blob[e.Data.Offset] = ','
	if r, err = obb.NewReader(blob); err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	err = obb.Unpack(r, dir, nil)
	if err == nil {
		t.Fatal("Unpack: got nil, want error")
	}
	var fe *obb.FileError
	if !errors.As(err, &fe) {
		t.Errorf("Unpack: got %v, want *FileError", err)
	}
	for _, want := range []string{"outside.txt", "broken.json"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Unpack error %q does not mention %q", err, want)
		}
	}

	// The good member and the sidecar are written anyway.
	if data, err := os.ReadFile(filepath.Join(dir, "good.txt")); err != nil || string(data) != "fine" {
		t.Errorf("good.txt: got (%q, %v), want fine", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, obb.FileTableName)); err != nil {
		t.Errorf("File table was not written: %v", err)
	}
	if data, err := os.ReadFile(filepath.Join(dir, "broken.json")); err != nil || string(data) != ",}" {
		t.Errorf("broken.json: got (%q, %v), want the stored contents", data, err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "outside.txt")); err == nil {
		t.Error("Unpack wrote a file outside the output directory")
	}
}
