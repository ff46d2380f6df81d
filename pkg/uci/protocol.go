// Package uci drives the engine over the Universal Chess Interface:
// stdin/stdout command loop, option negotiation and search progress
// reporting. It knows nothing about search internals beyond the small
// Engine interface below.
package uci

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
	"github.com/jlchizhov/corebitbase/pkg/search"
)

// Engine is what Protocol needs from the search package: everything
// else (evaluator wiring, bitbase attachment) happens before Protocol
// is constructed.
type Engine interface {
	Prepare()
	Clear()
	Search(ctx context.Context, searchParams search.SearchParams) search.SearchInfo
}

// Protocol implements CommandHandler so it can be driven by RunCli's
// stdin loop: "go" spawns the search in the background and prints its
// own "info"/"bestmove" lines as they happen, so a later "stop" line
// can still reach Handle while a search is in flight.
type Protocol struct {
	name      string
	author    string
	version   string
	options   []Option
	engine    Engine
	positions []Position

	mu       sync.Mutex
	thinking bool
	cancel   context.CancelFunc
}

func New(name, author, version string, engine Engine, options []Option) *Protocol {
	var initPosition, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    engine,
		options:   options,
		positions: []Position{initPosition},
	}
}

func (uci *Protocol) Handle(ctx context.Context, commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	uci.mu.Lock()
	var thinking = uci.thinking
	uci.mu.Unlock()

	if thinking {
		if commandName == "stop" {
			uci.mu.Lock()
			if uci.cancel != nil {
				uci.cancel()
			}
			uci.mu.Unlock()
			return nil
		}
		return errors.New("search still running")
	}

	var h func(fields []string) error

	switch commandName {
	case "uci":
		h = uci.uciCommand
	case "setoption":
		h = uci.setOptionCommand
	case "isready":
		h = uci.isReadyCommand
	case "position":
		h = uci.positionCommand
	case "go":
		h = func(fields []string) error { return uci.goCommand(ctx, fields) }
	case "ucinewgame":
		h = uci.uciNewGameCommand
	case "ponderhit":
		h = uci.ponderhitCommand
	case "bitgenerate":
		h = uci.bitgenerateCommand
	}

	if h == nil {
		return fmt.Errorf("command not found: %s", commandName)
	}

	return h(fields)
}

func (uci *Protocol) uciCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", uci.name, uci.version)
	fmt.Printf("id author %s\n", uci.author)
	for _, option := range uci.options {
		fmt.Println(option.UciString())
	}
	fmt.Println("uciok")
	return nil
}

func (uci *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 4 {
		return errors.New("invalid setoption arguments")
	}
	var name, value = fields[1], fields[3]
	for _, option := range uci.options {
		if strings.EqualFold(option.UciName(), name) {
			return option.Set(value)
		}
	}
	return errors.New("unhandled option")
}

func (uci *Protocol) isReadyCommand(fields []string) error {
	uci.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (uci *Protocol) positionCommand(fields []string) error {
	var args = fields
	if len(args) == 0 {
		return errors.New("unknown position command")
	}
	var token = args[0]
	var fen string
	var movesIndex = findIndexString(args, "moves")
	if token == "startpos" {
		fen = InitialPositionFen
	} else if token == "fen" {
		if movesIndex == -1 {
			fen = strings.Join(args[1:], " ")
		} else {
			fen = strings.Join(args[1:movesIndex], " ")
		}
	} else {
		return errors.New("unknown position command")
	}
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		return err
	}
	var positions = []Position{p}
	if movesIndex >= 0 && movesIndex+1 < len(args) {
		for _, smove := range args[movesIndex+1:] {
			var newPos, ok = positions[len(positions)-1].MakeMoveLAN(smove)
			if !ok {
				return errors.New("parse move failed")
			}
			positions = append(positions, newPos)
		}
	}
	uci.positions = positions
	return nil
}

func (uci *Protocol) goCommand(parent context.Context, fields []string) error {
	var limits = parseLimits(fields)
	var ctx, cancel = context.WithCancel(parent)

	uci.mu.Lock()
	uci.cancel = cancel
	uci.thinking = true
	uci.mu.Unlock()

	var positions = uci.positions

	go func() {
		defer func() {
			uci.mu.Lock()
			uci.thinking = false
			uci.cancel = nil
			uci.mu.Unlock()
		}()

		var searchResult = uci.engine.Search(ctx, search.SearchParams{
			Positions: positions,
			Limits:    limits,
			Progress: func(si search.SearchInfo) {
				fmt.Println(searchInfoToUci(si))
			},
		})
		if len(searchResult.MainLine) != 0 {
			fmt.Printf("bestmove %v\n", searchResult.MainLine[0])
		} else {
			fmt.Println("bestmove 0000")
		}
	}()
	return nil
}

func (uci *Protocol) uciNewGameCommand(fields []string) error {
	uci.engine.Clear()
	return nil
}

func (uci *Protocol) ponderhitCommand(fields []string) error {
	return errors.New("not implemented")
}

func searchInfoToUci(si search.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	var timeMs = si.Time.Milliseconds()
	var nps = si.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(sb, " nodes %v time %v nps %v", si.Nodes, timeMs, nps)
	if len(si.MainLine) != 0 {
		fmt.Fprintf(sb, " pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func parseLimits(args []string) (result search.LimitsType) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			result.Ponder = true
		case "wtime":
			result.WhiteTime, _ = strconv.Atoi(args[i+1])
			i++
		case "btime":
			result.BlackTime, _ = strconv.Atoi(args[i+1])
			i++
		case "winc":
			result.WhiteIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "binc":
			result.BlackIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "movestogo":
			result.MovesToGo, _ = strconv.Atoi(args[i+1])
			i++
		case "depth":
			result.Depth, _ = strconv.Atoi(args[i+1])
			i++
		case "nodes":
			result.Nodes, _ = strconv.Atoi(args[i+1])
			i++
		case "mate":
			result.Mate, _ = strconv.Atoi(args[i+1])
			i++
		case "movetime":
			result.MoveTime, _ = strconv.Atoi(args[i+1])
			i++
		case "infinite":
			result.Infinite = true
		}
	}
	return
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
