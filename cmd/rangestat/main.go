package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/akmistry/lazyrange/internal/app/rangestat"
	"github.com/akmistry/lazyrange/internal/coverage"
	"github.com/akmistry/lazyrange/internal/segment"
	"github.com/akmistry/lazyrange/internal/window"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Verbose logging")
	bitmapFlag  = flag.Bool("bitmap", false, "Use the bitmap coverage index")

	loadedFlag   = flag.String("loaded", "", "Comma separated loaded segments (OFFSET+COUNT)")
	pendingFlag  = flag.String("pending", "", "Comma separated in-flight segments")
	failedFlag   = flag.String("failed", "", "Comma separated failed segments")
	notFoundFlag = flag.String("not-found", "", "Comma separated segments reported not found")
)

var errFailed = errors.New("fetch failed")

func mustParseList(name, str string) []segment.Segment {
	segs, err := rangestat.ParseSegmentList(str)
	if err != nil {
		log.Printf("Invalid -%s flag: %v", name, err)
		os.Exit(1)
	}
	return segs
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		log.Print("Usage: rangestat [flags] <OFFSET+COUNT>")
		os.Exit(1)
	}

	if *verboseFlag {
		slog.SetDefault(slog.New(slog.NewTextHandler(
			os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	win, err := rangestat.ParseSegment(flag.Arg(0))
	if err != nil {
		log.Printf("Invalid window %s: %v", flag.Arg(0), err)
		os.Exit(1)
	}

	var opts window.TrackerOptions
	if *bitmapFlag {
		opts.Index = coverage.NewBitmapIndex()
	}
	tr := window.NewTracker(opts)

	for _, s := range mustParseList("not-found", *notFoundFlag) {
		tr.NotFound(s)
	}
	for _, s := range mustParseList("failed", *failedFlag) {
		tr.Fail(s, errFailed)
	}
	for _, s := range mustParseList("pending", *pendingFlag) {
		tr.Start(s)
	}
	for _, s := range mustParseList("loaded", *loadedFlag) {
		tr.Finish(s)
	}

	for _, s := range tr.Status(win) {
		fmt.Printf("%-16s %s\n", s.Segment, s.Status)
	}
}
