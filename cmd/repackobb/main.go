// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program repackobb packs a directory written by xtractobb back into an
// AP_Pack! archive.
//
// Usage:
//
//	repackobb [-story re] [-ink re] [-level n] inputdir outputfile
//
// The members listed in the file table sidecar of inputdir are packed in
// order. If the directory holds a reference document for the main story, the
// main story and ink content files are first regenerated from it, so edits
// made to the reference document are carried into the archive. An existing
// outputfile is replaced.
//
// Exit status:
//
//	0  success
//	1  wrong number of arguments
//	2  the output path exists and is not a regular file
//	3  the output file could not be written
//	4  the input path is not a directory
//	5  the input is missing or could not be read
//	6  the input has no usable file table
//	7  a member file listed in the file table is missing
//	8  a member path is not a regular file
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"

	"github.com/creachadair/jsont/obb"
	"github.com/golang/glog"
)

const (
	exitOK = iota
	exitUsage
	exitOutputNotFile
	exitOutputNoAccess
	exitInputNotDir
	exitInputNoAccess
	exitNoFileTable
	exitFilesMissing
	exitFilesNotValid
)

func main() {
	flag.Set("logtostderr", "true")
	code := run(os.Args[1:], os.Stderr)
	glog.Flush()
	os.Exit(code)
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("repackobb", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		storyRE = flags.String("story", "", "Regexp matching the main story member (default Sorcery\\d.(min)?json)")
		inkRE   = flags.String("ink", "", "Regexp matching the ink content member (default Sorcery\\d.inkcontent)")
		level   = flags.Int("level", 0, "Compression level, 1 to 9 (default best compression)")
	)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: repackobb [options] inputdir outputfile")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil || flags.NArg() != 2 {
		if err == nil {
			flags.Usage()
		}
		return exitUsage
	}
	if *level < 0 || *level > 9 {
		fmt.Fprintf(stderr, "Invalid -level %d\n", *level)
		return exitUsage
	}
	opts := &obb.Options{Level: *level, Logf: glog.Infof}
	var err error
	if *storyRE != "" {
		if opts.MainStory, err = regexp.Compile(*storyRE); err != nil {
			fmt.Fprintf(stderr, "Invalid -story pattern: %v\n", err)
			return exitUsage
		}
	}
	if *inkRE != "" {
		if opts.InkContent, err = regexp.Compile(*inkRE); err != nil {
			fmt.Fprintf(stderr, "Invalid -ink pattern: %v\n", err)
			return exitUsage
		}
	}
	indir, output := flags.Arg(0), flags.Arg(1)

	m, err := obb.LoadManifest(indir, opts)
	if err != nil {
		glog.Errorf("%v", err)
		return loadErrorCode(indir, err)
	}

	if fi, err := os.Stat(output); err == nil {
		if !fi.Mode().IsRegular() {
			glog.Errorf("Path %q already exists, and is not a file", output)
			return exitOutputNotFile
		}
		if err := os.Remove(output); err != nil {
			glog.Errorf("Could not delete existing file: %v", err)
			return exitOutputNoAccess
		}
	}
	f, err := os.Create(output)
	if err != nil {
		glog.Errorf("Could not open output file: %v", err)
		return exitOutputNoAccess
	}
	perr := m.Pack(f, opts)
	cerr := f.Close()
	if perr != nil {
		glog.Errorf("Packing failed: %v", perr)
		return exitInputNoAccess
	} else if cerr != nil {
		glog.Errorf("Writing output failed: %v", cerr)
		return exitOutputNoAccess
	}
	glog.Infof("Wrote %d members to %s", len(m.Entries), output)
	return exitOK
}

// loadErrorCode returns the exit status for an error from obb.LoadManifest.
func loadErrorCode(indir string, err error) int {
	var fe *obb.FileError
	switch {
	case errors.Is(err, obb.ErrNotDir):
		return exitInputNotDir
	case errors.Is(err, obb.ErrNoFileTable):
		return exitNoFileTable
	case errors.As(err, &fe) && fe.Path == indir:
		return exitInputNoAccess
	case errors.Is(err, obb.ErrNotRegular):
		return exitFilesNotValid
	case errors.Is(err, fs.ErrNotExist):
		return exitFilesMissing
	}
	return exitInputNoAccess
}
