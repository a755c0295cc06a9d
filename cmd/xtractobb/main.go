// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program xtractobb unpacks an AP_Pack! archive into a directory.
//
// Usage:
//
//	xtractobb [-story re] [-ink re] inputfile outputdir
//
// Each member is written to a file under outputdir. JSON members are
// pretty-printed. The file table sidecar needed by repackobb is written
// alongside them, and if the archive holds a main story and its ink content,
// the stitched reference document is written as well.
//
// Exit status:
//
//	0  success
//	1  wrong number of arguments
//	2  the input file does not exist
//	3  the input is not a regular file
//	4  the input could not be read
//	5  the input is not an archive (missing signature)
//	6  the archive header or file table is corrupt
//	7  the output path exists and is not a directory
//	8  the output directory could not be created
//	9  one or more members could not be unpacked
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
	exitNotFound
	exitNotFile
	exitNoAccess
	exitBadSignature
	exitCorrupt
	exitOutputNotDir
	exitOutputNoAccess
	exitMemberErrors
)

func main() {
	flag.Set("logtostderr", "true")
	code := run(os.Args[1:], os.Stderr)
	glog.Flush()
	os.Exit(code)
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("xtractobb", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		storyRE = flags.String("story", "", "Regexp matching the main story member (default Sorcery\\d.(min)?json)")
		inkRE   = flags.String("ink", "", "Regexp matching the ink content member (default Sorcery\\d.inkcontent)")
	)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: xtractobb [options] inputfile outputdir")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil || flags.NArg() != 2 {
		if err == nil {
			flags.Usage()
		}
		return exitUsage
	}
	opts, err := options(*storyRE, *inkRE)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	input, outdir := flags.Arg(0), flags.Arg(1)

	if fi, err := os.Stat(input); errors.Is(err, fs.ErrNotExist) {
		glog.Errorf("File %q does not exist", input)
		return exitNotFound
	} else if err != nil {
		glog.Errorf("Cannot access input: %v", err)
		return exitNoAccess
	} else if !fi.Mode().IsRegular() {
		glog.Errorf("Path %q must be a file", input)
		return exitNotFile
	}

	if fi, err := os.Stat(outdir); err == nil {
		if !fi.IsDir() {
			glog.Errorf("Path %q must be a directory", outdir)
			return exitOutputNotDir
		}
	} else if err := os.MkdirAll(outdir, 0755); err != nil {
		glog.Errorf("Could not create output directory: %v", err)
		return exitOutputNoAccess
	}

	blob, err := os.ReadFile(input)
	if err != nil {
		glog.Errorf("Could not read input file: %v", err)
		return exitNoAccess
	}
	r, err := obb.NewReader(blob)
	if errors.Is(err, obb.ErrBadSignature) {
		glog.Errorf("Input file %q is missing the archive signature", input)
		return exitBadSignature
	} else if err != nil {
		glog.Errorf("Invalid archive %q: %v", input, err)
		return exitCorrupt
	}

	glog.Infof("Unpacking %d members from %s", r.Len(), input)
	if err := obb.Unpack(r, outdir, opts); err != nil {
		for _, e := range unjoin(err) {
			glog.Errorf("%v", e)
		}
		return exitMemberErrors
	}
	return exitOK
}

// options constructs unpacking options from the command-line patterns.
// Empty patterns select the defaults.
func options(story, ink string) (*obb.Options, error) {
	opts := &obb.Options{Logf: glog.Infof}
	var err error
	if story != "" {
		if opts.MainStory, err = regexp.Compile(story); err != nil {
			return nil, fmt.Errorf("invalid -story pattern: %w", err)
		}
	}
	if ink != "" {
		if opts.InkContent, err = regexp.Compile(ink); err != nil {
			return nil, fmt.Errorf("invalid -ink pattern: %w", err)
		}
	}
	return opts, nil
}

// unjoin returns the errors combined by errors.Join, or err alone.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
