// Package search is the single-threaded iterative-deepening alpha-beta
// kernel: move ordering, transposition table, time management and the
// UCI-facing search entry point. It consumes pkg/chess for board state
// and an optional pkg/bitbase registry for exact endgame probes.
package search

import (
	"time"

	"github.com/jlchizhov/corebitbase/pkg/chess"
)

// LimitsType mirrors the UCI go-command limits: zero fields mean unset.
type LimitsType struct {
	WhiteTime, BlackTime           int
	WhiteIncrement, BlackIncrement int
	MovesToGo                      int
	Depth                          int
	Nodes                          int
	MoveTime                       int
	Mate                           int
	Infinite                       bool
	Ponder                         bool
}

// UciScore is either a centipawn score or a mate-in-N count, matching the
// UCI "score cp" / "score mate" distinction.
type UciScore struct {
	Centipawns int
	Mate       int
}

// SearchParams is the immutable input to Engine.Search: the game history
// (for repetition/threefold detection) ending in the position to search,
// the limits and an optional progress callback for "info" updates.
type SearchParams struct {
	Positions []chess.Position
	Limits    LimitsType
	Progress  func(SearchInfo)
}

// SearchInfo is a UCI "info" snapshot: depth reached, principal variation,
// score, node count and elapsed time.
type SearchInfo struct {
	Depth    int
	MainLine []chess.Move
	Score    UciScore
	Nodes    int64
	Time     time.Duration
}

// Evaluator is a pure static evaluation function: no search state, no
// incremental update, just position in, centipawn score out from the
// side-to-move's perspective.
type Evaluator interface {
	Evaluate(p *chess.Position) int
}

// Bitbase is the stand-pat probe the search kernel consults once a
// position's material signature is small enough to be exact. A hit
// returns a fixed side-to-move-relative score for a win, draw or loss;
// it carries no distance to mate.
type Bitbase interface {
	Probe(p *chess.Position) (value int, ok bool)
}
