package search

import (
	"context"
	"errors"
	"time"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

var errSearchTimeout = errors.New("search: time limit reached")

// Engine is the single search context: one transposition table, one set
// of history tables, one call stack. The specification excludes
// multi-threaded search, so unlike the lazy-SMP engine this is modeled
// on, Engine.Search drives iterative deepening itself instead of
// fanning work out across goroutines.
type Engine struct {
	Options

	// BitbaseMaxPieces bounds the stand-pat bitbase probe to positions
	// with at most this many pieces on the board (kings included). Zero
	// disables probing even if Bitbase is set.
	BitbaseMaxPieces int
	Bitbase          Bitbase

	evaluator   Evaluator
	timeManager TimeManager
	transTable  *TransTable
	historyKeys map[uint64]int
	thread      thread
	progress    func(SearchInfo)
	mainLine    mainLine
	start       time.Time
	nodes       int64
}

type thread struct {
	engine  *Engine
	history historyService
	nodes   int64
	stack   [stackSize]struct {
		position       Position
		moveList       [MaxMoves]OrderedMove
		quietsSearched [MaxMoves]Move
		pv             pv
		iterator       moveIterator
		staticEval     int
		killer1        Move
		killer2        Move
	}
}

type pv struct {
	items [stackSize]Move
	size  int
}

type mainLine struct {
	moves []Move
	score int
	depth int
	nodes int64
}

// NewEngine wires a static evaluator into a fresh search context. The
// evaluator is a pure function of position; Engine owns no incremental
// evaluation state, matching the specification's evaluation contract.
func NewEngine(evaluator Evaluator) *Engine {
	return &Engine{
		Options:   NewOptions(),
		evaluator: evaluator,
	}
}

func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Hash {
		e.transTable = NewTransTable(e.Hash)
	}
	e.thread.engine = e
}

// Search runs iterative deepening from searchParams.Positions' last
// element until the time manager or an explicit depth/node limit stops
// it, then returns the best line found so far.
func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()

	var p = &searchParams.Positions[len(searchParams.Positions)-1]
	var _, tm = newTimeManager(ctx, e.start, searchParams.Limits, p)
	e.timeManager = tm
	defer tm.Close()

	e.transTable.IncDate()
	e.historyKeys = getHistoryKeys(searchParams.Positions)
	e.nodes = 0
	e.thread.nodes = 0
	e.thread.stack[0].position = *p
	e.progress = searchParams.Progress
	e.mainLine = mainLine{}

	e.iterativeDeepening(searchParams.Limits)

	e.nodes += e.thread.nodes
	e.thread.nodes = 0
	return e.currentSearchResult()
}

// iterativeDeepening is the single-threaded replacement for the lazy-SMP
// dispatcher: deepen by one ply at a time, reusing the previous
// iteration's best move and score to seed move ordering and the
// aspiration window, and stop on panic(errSearchTimeout) from incNodes.
func (e *Engine) iterativeDeepening(limits LimitsType) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				return
			}
			panic(r)
		}
	}()

	var t = &e.thread
	for h := 0; h <= 2; h++ {
		t.stack[h].killer1 = MoveEmpty
		t.stack[h].killer2 = MoveEmpty
	}

	var ml = e.genRootMoves()
	if len(ml) == 0 {
		return
	}
	e.mainLine = mainLine{depth: 0, score: 0, moves: []Move{ml[0]}}
	if len(ml) == 1 && !limits.Infinite {
		return
	}

	for depth := 1; depth <= maxHeight; depth++ {
		if limits.Depth != 0 && depth > limits.Depth && !limits.Infinite {
			return
		}
		if e.mainLine.moves[0] != MoveEmpty {
			if index := findMoveIndex(ml, e.mainLine.moves[0]); index >= 0 {
				moveToBegin(ml, index)
			}
		}

		var score = aspirationWindow(t, ml, depth, e.mainLine.score)

		e.mainLine = mainLine{
			depth: depth,
			score: score,
			moves: t.stack[0].pv.toSlice(),
			nodes: e.mainLine.nodes + t.nodes,
		}
		e.nodes += t.nodes
		t.nodes = 0

		e.timeManager.OnIterationComplete(depth, score)
		if e.progress != nil && e.nodes >= int64(e.ProgressMinNodes) {
			e.progress(e.currentSearchResult())
		}
		if e.timeManager.IsDone() {
			return
		}
	}
}

func getHistoryKeys(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	e.thread.history.Clear()
}

func (e *Engine) currentSearchResult() SearchInfo {
	return SearchInfo{
		Depth:    e.mainLine.depth,
		MainLine: e.mainLine.moves,
		Score:    newUciScore(e.mainLine.score),
		Nodes:    e.nodes,
		Time:     time.Since(e.start),
	}
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}
