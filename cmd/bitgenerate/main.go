package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/jlchizhov/corebitbase/pkg/bitbase"
	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func main() {
	var cores = flag.Int("cores", runtime.NumCPU(), "worker goroutines for the retrograde sweep")
	var path = flag.String("path", ".", "output directory for the .btb file")
	var compressionName = flag.String("compression", "none", "miniz|lz4|none")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bitgenerate <signature> [-cores N] [-path P] [-compression miniz|lz4|none]")
		os.Exit(2)
	}
	var sig = Signature(flag.Arg(0))

	var compression bitbase.Compression
	switch *compressionName {
	case "miniz":
		compression = bitbase.CompressionS2
	case "lz4":
		compression = bitbase.CompressionZstd
	default:
		compression = bitbase.CompressionNone
	}

	var logger = log.New(os.Stderr, "", log.LstdFlags)
	logger.Printf("generating %s with %d cores\n", sig, *cores)

	var zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Pointed at the same output directory, so a signature whose captures
	// or promotions leave for one already generated and written there on
	// an earlier invocation (e.g. KQK before KPK) resolves against it
	// instead of being left unknown.
	var registry = bitbase.NewRegistry(*path, 511)
	defer registry.Close()

	var start = time.Now()
	var values, stats, err = bitbase.Generate(context.Background(), sig, bitbase.GenerateOptions{Cores: *cores, Log: &zlog, Registry: registry})
	if err != nil {
		logger.Fatal(err)
	}

	var outPath = filepath.Join(*path, string(sig)+".btb")
	if err := bitbase.WriteFile(outPath, sig, values, bitbase.DefaultClusterSize, compression); err != nil {
		logger.Fatal(err)
	}

	logger.Printf("%s: %d positions (%d win, %d loss, %d draw), %d sweeps, wrote %s in %s\n",
		sig, stats.Size, stats.Wins, stats.Losses, stats.Draws, stats.Iterations, outPath, time.Since(start).Round(time.Millisecond))
}
