// Command tagdump is an operator inspection tool for a store. It is not
// part of the store's programmatic surface: it opens a Reader against a
// store path and prints the matching blob(s) to stdout, for poking at a
// store by hand during development.
package main

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/skiptag/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tagdump:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("tagdump", pflag.ContinueOnError)

	path := fs.StringP("path", "p", "", "base path of the store (required)")
	tag := fs.Int64P("tag", "t", 0, "look up this exact tag")
	floor := fs.Int64("floor", 0, "look up the floor of this tag")
	ceil := fs.Int64("ceil", 0, "look up the ceil of this tag")
	rangeStart := fs.Int64("range-start", 0, "start of a [range-start, range-end) scan")
	rangeEnd := fs.Int64("range-end", math.MaxInt64, "end of a [range-start, range-end) scan")
	doRange := fs.Bool("range", false, "scan [range-start, range-end) instead of a point lookup")
	showPayload := fs.Bool("show-payload", false, "print payload bytes as hex alongside the tag")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	r, err := store.OpenReader(*path)
	if err != nil {
		return fmt.Errorf("open reader: %w", err)
	}
	defer r.Close()

	if *doRange {
		blobs, err := r.Range(*rangeStart, *rangeEnd)
		if err != nil {
			return fmt.Errorf("range: %w", err)
		}
		for _, b := range blobs {
			printBlob(b, *showPayload)
		}
		return nil
	}

	var (
		blob  store.Blob
		found bool
	)
	switch {
	case fs.Changed("floor"):
		blob, found, err = r.Floor(*floor)
	case fs.Changed("ceil"):
		blob, found, err = r.Ceil(*ceil)
	default:
		blob, found, err = r.At(*tag)
	}
	return printLookup(blob, found, err, *showPayload)
}

func printLookup(blob store.Blob, found bool, err error, showPayload bool) error {
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("not found")
		return nil
	}
	printBlob(blob, showPayload)
	return nil
}

func printBlob(b store.Blob, showPayload bool) {
	if showPayload {
		fmt.Printf("tag=%d bytes=%d payload=%s\n", b.Tag, len(b.Payload), hex.EncodeToString(b.Payload))
		return
	}
	fmt.Printf("tag=%d bytes=%d\n", b.Tag, len(b.Payload))
}
