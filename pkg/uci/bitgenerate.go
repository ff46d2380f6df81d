package uci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
	"github.com/jlchizhov/corebitbase/pkg/bitbase"
)

// signatureShortcuts expands the bitgenerate command's shortcut tokens
// (§6) into the signatures they stand for: "3" is every 3-piece
// signature (KPK, KNK is never won but still generated, KBK, ...), "4"
// and "5" a fixed selection of 4- and 5-piece signatures, and "5s" the
// single signature KPKP. Listing
// order here doesn't matter: bitgenerateCommand always reorders the
// expansion into dependency order before generating.
var signatureShortcuts = map[string][]Signature{
	"3":  {"KPK", "KNK", "KBK", "KRK", "KQK"},
	"4":  {"KPKP", "KNKP", "KBKP", "KRKP", "KQKP", "KNKN", "KBKB", "KRKR", "KQKQ"},
	"5":  {"KPKPP", "KRKBN", "KQKRB", "KRRKR", "KQKQP"},
	"5s": {"KPKP"},
}

// dependencyOrder sorts signatures so that every signature a capture or
// promotion can carry a position into appears earlier in the result:
// a promotion always drops the pawn count by exactly one, and a capture
// never raises either the pawn count or the total piece count, so
// sorting ascending by (pawn count, total piece count) guarantees each
// signature's possible out-of-signature children were generated, and
// can be attached to the run's shared registry, before it is generated
// itself.
func dependencyOrder(sigs []Signature) []Signature {
	var sorted = append([]Signature(nil), sigs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		var pawnsI, piecesI = signatureWeight(sorted[i])
		var pawnsJ, piecesJ = signatureWeight(sorted[j])
		if pawnsI != pawnsJ {
			return pawnsI < pawnsJ
		}
		return piecesI < piecesJ
	})
	return sorted
}

func signatureWeight(sig Signature) (pawns, pieces int) {
	for i := 0; i < len(sig); i++ {
		if sig[i] == 'K' {
			continue
		}
		pieces++
		if sig[i] == 'P' {
			pawns++
		}
	}
	return
}

// bitgenerateCommand implements the "bitgenerate <signature> [cores N]
// [path P] [compression miniz|lz4|none] [cpp]" CLI extension: it runs
// the retrograde generator for every signature the token expands to,
// in dependency order, attaching each written file into a registry
// shared across the whole run so a later signature's captures and
// promotions can probe an earlier one's verdicts instead of leaving
// them unresolved.
func (uci *Protocol) bitgenerateCommand(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("bitgenerate: missing signature argument")
	}

	var cores = 1
	var path = "."
	var compression = bitbase.CompressionNone
	var emitEmbed = false
	var token = fields[0]

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "cores":
			i++
			if i < len(fields) {
				fmt.Sscanf(fields[i], "%d", &cores)
			}
		case "path":
			i++
			if i < len(fields) {
				path = fields[i]
			}
		case "compression":
			i++
			if i < len(fields) {
				switch fields[i] {
				case "miniz":
					compression = bitbase.CompressionS2
				case "lz4":
					compression = bitbase.CompressionZstd
				case "none":
					compression = bitbase.CompressionNone
				}
			}
		case "cpp":
			// Also emit a go:embed companion source file per signature,
			// the compiled-in header variant of the written .btb file.
			emitEmbed = true
		}
	}

	var zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var signatures []Signature
	if expanded, ok := signatureShortcuts[token]; ok {
		signatures = expanded
	} else {
		signatures = []Signature{Signature(token)}
	}
	signatures = dependencyOrder(signatures)

	var registry = bitbase.NewRegistry(path, 511)
	defer registry.Close()

	for _, sig := range signatures {
		var start = time.Now()
		var values, stats, err = bitbase.Generate(context.Background(), sig, bitbase.GenerateOptions{Cores: cores, Log: &zlog, Registry: registry})
		if err != nil {
			return fmt.Errorf("bitgenerate %s: %w", sig, err)
		}
		var outPath = filepath.Join(path, string(sig)+".btb")
		if err := bitbase.WriteFile(outPath, sig, values, bitbase.DefaultClusterSize, compression); err != nil {
			return fmt.Errorf("bitgenerate %s: write: %w", sig, err)
		}
		if err := registry.Attach(sig); err != nil {
			return fmt.Errorf("bitgenerate %s: attach for dependents: %w", sig, err)
		}
		if emitEmbed {
			if err := writeEmbedGo(path, sig); err != nil {
				return fmt.Errorf("bitgenerate %s: embed: %w", sig, err)
			}
		}
		fmt.Printf("bitgenerate %s: %d positions, %d win %d loss %d draw, %d sweeps, %s\n",
			sig, stats.Size, stats.Wins, stats.Losses, stats.Draws, stats.Iterations, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// writeEmbedGo drops a small Go source file next to sig's .btb file that
// embeds it as a []byte via go:embed, the Go-native equivalent of the
// original's compiled-in C++ header: a binary can import the generated
// package and hand the bytes straight to bitbase.LoadEmbedded without
// shipping a separate data file alongside it.
func writeEmbedGo(dir string, sig Signature) error {
	var varName = string(sig) + "Data"
	var content = fmt.Sprintf(`package bitbases

import _ "embed"

// %s is the compiled-in %s bitbase, embedded from %s.btb.
//go:embed %s.btb
var %s []byte
`, varName, sig, sig, sig, varName)

	var goPath = filepath.Join(dir, strings.ToLower(string(sig))+"_embed.go")
	return os.WriteFile(goPath, []byte(content), 0644)
}
