// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program prettyjson rewrites JSON files in place, changing only the
// whitespace between tokens.
//
// Usage:
//
//	prettyjson -h
//	prettyjson [-s] -p|-w|-c jsonfile ...
//
// With -p the files are pretty-printed, with -w all whitespace is removed, and
// with -c all whitespace is removed except for a single space after each
// colon. With -s, comments and trailing commas are removed first, so that
// JSON-with-comments input is accepted.
//
// Every file named is processed, even if some fail. The exit status is 0 on
// success, 1 if no files are named, 2 if the mode flags are invalid, and 3 if
// any file could not be rewritten.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/creachadair/jsont/pretty"
	"github.com/golang/glog"
	"github.com/tailscale/hujson"
)

const (
	exitOK = iota
	exitUsage
	exitInvalidMode
	exitFileError
)

func main() {
	flag.Set("logtostderr", "true")
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	glog.Flush()
	os.Exit(code)
}

const usageText = `Usage: prettyjson -h
Usage: prettyjson [-s] -p|-w|-c jsonfile [...]

Where:
	-h	Displays this message.
	-p	Pretty prints the input JSON files.
	-w	Removes all whitespace from the input JSON files.
	-c	Like -w, but adds a single space after ':'.
	-s	Removes comments and trailing commas before printing.
`

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("prettyjson", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {}
	var (
		doPretty  = flags.Bool("p", false, "Pretty print")
		doFlat    = flags.Bool("w", false, "Remove all whitespace")
		doCompact = flags.Bool("c", false, "Remove whitespace except after colons")
		doStd     = flags.Bool("s", false, "Standardize HuJSON input")
	)
	if err := flags.Parse(args); errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(stdout, usageText)
		return exitOK
	} else if err != nil {
		fmt.Fprint(stderr, usageText)
		return exitInvalidMode
	}
	if flags.NArg() == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	var modes []pretty.Mode
	if *doPretty {
		modes = append(modes, pretty.Pretty)
	}
	if *doFlat {
		modes = append(modes, pretty.NoWhitespace)
	}
	if *doCompact {
		modes = append(modes, pretty.Compact)
	}
	if len(modes) != 1 {
		fmt.Fprintln(stderr, "Exactly one of -p, -c, or -w must be given")
		return exitInvalidMode
	}

	var nerr int
	for _, path := range flags.Args() {
		if err := rewrite(path, modes[0], *doStd); err != nil {
			glog.Errorf("%s: %v", path, err)
			nerr++
		}
	}
	if nerr > 0 {
		return exitFileError
	}
	return exitOK
}

// rewrite reformats the JSON file at path in the given mode. The file is not
// modified if it cannot be reformatted.
func rewrite(path string, mode pretty.Mode, standardize bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	} else if !fi.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if standardize {
		data, err = hujson.Standardize(data)
		if err != nil {
			return fmt.Errorf("standardize: %w", err)
		}
	}
	out, err := pretty.Bytes(data, mode)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, fi.Mode().Perm())
}
