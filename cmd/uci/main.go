package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/jlchizhov/corebitbase/pkg/bitbase"
	"github.com/jlchizhov/corebitbase/pkg/eval"
	"github.com/jlchizhov/corebitbase/pkg/search"
	"github.com/jlchizhov/corebitbase/pkg/uci"
)

const (
	name   = "Corebitbase"
	author = "jlchizhov"
)

var (
	versionName = "dev"
	flgBitbases string
)

func main() {
	flag.StringVar(&flgBitbases, "bitbases", "", "directory holding .btb endgame tables")
	flag.Parse()

	var logger = log.New(os.Stderr, "", log.LstdFlags)
	logger.Println(name, "VersionName", versionName, "RuntimeVersion", runtime.Version())

	var engine = search.NewEngine(eval.NewService())

	if flgBitbases != "" {
		var registry = bitbase.NewRegistry(flgBitbases, 511)
		engine.Bitbase = registry
		engine.BitbaseMaxPieces = 5
	}

	var protocol = uci.New(name, author, versionName, engine,
		[]uci.Option{
			&uci.IntOption{Name: "Hash", Min: 1, Max: 1 << 16, Value: &engine.Hash},
			&uci.BoolOption{Name: "NullMovePruning", Value: &engine.NullMovePruning},
			&uci.BoolOption{Name: "AspirationWindows", Value: &engine.AspirationWindows},
			&uci.BoolOption{Name: "SingularExtension", Value: &engine.SingularExt},
			&uci.BoolOption{Name: "Probcut", Value: &engine.Probcut},
			&uci.StringOption{Name: "BitbasePath", Value: &flgBitbases},
		},
	)

	fmt.Fprintln(os.Stderr, "engine ready")
	uci.RunCli(logger, protocol)
}
