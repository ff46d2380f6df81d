package bitbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

// workPackageSize is the number of indices a worker claims at a time
// from the shared fetch-and-add cursor, large enough to amortize the
// cursor's contention against the cost of probing one index.
const workPackageSize = 50000

// GenerateOptions configures one retrograde generation run.
type GenerateOptions struct {
	Cores int

	// Registry, if set, is consulted whenever a capture or promotion
	// carries a position out of the signature being generated: the
	// resulting position is probed against whatever sibling signature
	// the registry already has attached, instead of the move being left
	// an unresolved escape. Generating signatures in dependency order
	// (fewer pawns, then fewer total pieces, first) and attaching each
	// one's file into the same registry before generating the next is
	// what lets e.g. KPK's promotion resolve against an already-known
	// KQK. A nil Registry treats every such position as unknown, same as
	// generating a signature with no sibling tables ready yet.
	Registry *Registry

	// Log, if non-nil, receives one structured event per sweep (candidates
	// resolved, running totals).
	Log *zerolog.Logger
}

// GenerationStats summarizes a completed run, enough to check the
// end-to-end win-ratio properties against known endgame constants.
type GenerationStats struct {
	Size       uint64
	Wins       uint64
	Losses     uint64
	Draws      uint64
	Illegal    uint64
	Iterations int
}

// generationState holds the working value array for one signature plus
// the candidate bitset marking every legal position not yet resolved;
// each sweep re-examines every position still marked.
type generationState struct {
	pl        *PieceList
	values    []Value
	candidate []uint32 // bitset, 32 indices per word
	size      uint64
	cursor    atomic.Uint64
	mu        sync.Mutex
	changed   atomic.Bool
	registry  *Registry
}

func newGenerationState(pl *PieceList) *generationState {
	var size = pl.Size()
	return &generationState{
		pl:        pl,
		values:    make([]Value, size),
		candidate: make([]uint32, (size+31)/32),
		size:      size,
	}
}

func (g *generationState) isCandidate(i uint64) bool {
	return (g.candidate[i/32] & (1 << (i % 32))) != 0
}

func (g *generationState) setCandidate(i uint64) {
	var word = &g.candidate[i/32]
	var bit = uint32(1) << (i % 32)
	for {
		var old = atomic.LoadUint32(word)
		if old&bit != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(word, old, old|bit) {
			g.changed.Store(true)
			return
		}
	}
}

func (g *generationState) clearCandidate(i uint64) {
	var word = &g.candidate[i/32]
	for {
		var old = atomic.LoadUint32(word)
		var bit = uint32(1) << (i % 32)
		if old&bit == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(word, old, old&^bit) {
			return
		}
	}
}

func (g *generationState) setValue(i uint64, v Value) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.values[i] != ValueUnknown {
		return false
	}
	g.values[i] = v
	return true
}

// getWork claims the next work package of indices by fetch-and-add on a
// shared cursor, the same distribution strategy the teacher pack's worker
// pools use for lock-free chunked iteration.
func (g *generationState) getWork() (lo, hi uint64, ok bool) {
	var start = g.cursor.Add(workPackageSize) - workPackageSize
	if start >= g.size {
		return 0, 0, false
	}
	var end = start + workPackageSize
	if end > g.size {
		end = g.size
	}
	return start, end, true
}

// Generate runs the 4-step retrograde fixed-point algorithm for sig and
// returns the filled value table plus summary statistics. It is grounded
// on the teacher pack's generationstate.h candidate-bitset sweep and the
// workpackage.h fetch-and-add distribution, driven here by an errgroup
// worker pool instead of hand-rolled threads.
func Generate(ctx context.Context, sig Signature, opts GenerateOptions) ([]Value, GenerationStats, error) {
	var pl = NewPieceList(sig)
	var state = newGenerationState(pl)
	state.registry = opts.Registry
	var cores = opts.Cores
	if cores <= 0 {
		cores = 1
	}
	var log = opts.Log
	if log == nil {
		var disabled = zerolog.Nop()
		log = &disabled
	}

	// Step 1: prerequisites. Positions that decompose to a different
	// signature (captures, promotions) must already have a verdict.
	// resolveCandidate gets there by probing opts.Registry, which the
	// caller is expected to have already populated with every signature
	// this one's captures and promotions can reach; a child that isn't
	// attached there stays unresolved for this sweep, same as before.
	if err := initialSweep(ctx, state, cores); err != nil {
		return nil, GenerationStats{}, err
	}
	log.Info().Str("signature", string(sig)).Uint64("size", state.size).Msg("bitbase: initial sweep done")

	// Step 2 & 3: iterative sweeps until no value changed.
	var iterations = 0
	for {
		state.changed.Store(false)
		if err := iterativeSweep(ctx, state, cores); err != nil {
			return nil, GenerationStats{}, err
		}
		iterations++
		log.Debug().Str("signature", string(sig)).Int("iteration", iterations).Bool("changed", state.changed.Load()).Msg("bitbase: sweep complete")
		if !state.changed.Load() {
			break
		}
		if iterations > 400 {
			return nil, GenerationStats{}, fmt.Errorf("bitbase: generation for %s did not converge", sig)
		}
	}

	var stats = GenerationStats{Size: state.size, Iterations: iterations}
	for _, v := range state.values {
		switch v {
		case ValueWin:
			stats.Wins++
		case ValueLoss:
			stats.Losses++
		case ValueDraw:
			stats.Draws++
		default:
			stats.Illegal++
		}
	}
	log.Info().Str("signature", string(sig)).
		Uint64("wins", stats.Wins).Uint64("losses", stats.Losses).Uint64("draws", stats.Draws).
		Int("iterations", stats.Iterations).Msg("bitbase: generation converged")
	return state.values, stats, nil
}

// initialSweep classifies every index once: illegal placements get no
// value (left ValueUnknown forever, which Registry.Probe reports as not
// covered), checkmates and stalemates resolve immediately,
// everything else becomes a retrograde candidate.
func initialSweep(ctx context.Context, state *generationState, cores int) error {
	var g, gctx = errgroup.WithContext(ctx)
	for w := 0; w < cores; w++ {
		g.Go(func() error {
			for {
				var lo, hi, ok = state.getWork()
				if !ok {
					return nil
				}
				for i := lo; i < hi; i++ {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					classifyLeaf(state, i)
				}
			}
		})
	}
	var err = g.Wait()
	state.cursor.Store(0)
	return err
}

func classifyLeaf(state *generationState, index uint64) {
	var access, ok = IndexToPosition(state.pl, index)
	if !ok {
		return
	}
	var pos, built = state.pl.ToPosition(access)
	if !built || !pos.IsLegal() {
		return
	}

	var moves = GenerateLegalMoves(&pos)
	if len(moves) == 0 {
		if pos.IsCheck() {
			// Side to move is checkmated: a loss for the side to move.
			state.setValue(index, ValueLoss)
		} else {
			state.setValue(index, ValueDraw)
		}
		return
	}
	state.setCandidate(index)
}

// iterativeSweep is one retrograde pass: every remaining candidate index
// tries each of its legal moves; if every move leads to a position
// already known to be winning for the mover's opponent, the candidate is
// a loss; if any move leads to a position known losing for the opponent,
// the candidate is a win. Indices with moves still unresolved are left
// as candidates for the next sweep.
func iterativeSweep(ctx context.Context, state *generationState, cores int) error {
	state.cursor.Store(0)
	var g, gctx = errgroup.WithContext(ctx)
	for w := 0; w < cores; w++ {
		g.Go(func() error {
			var localWins, localLosses []uint64
			for {
				var lo, hi, ok = state.getWork()
				if !ok {
					break
				}
				for i := lo; i < hi; i++ {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					if !state.isCandidate(i) {
						continue
					}
					switch resolveCandidate(state, i) {
					case ValueWin:
						localWins = append(localWins, i)
					case ValueLoss:
						localLosses = append(localLosses, i)
					}
				}
			}
			for _, i := range localWins {
				if state.setValue(i, ValueWin) {
					state.clearCandidate(i)
					state.changed.Store(true)
				}
			}
			for _, i := range localLosses {
				if state.setValue(i, ValueLoss) {
					state.clearCandidate(i)
					state.changed.Store(true)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func resolveCandidate(state *generationState, index uint64) Value {
	var access, ok = IndexToPosition(state.pl, index)
	if !ok {
		return ValueUnknown
	}
	var pos, built = state.pl.ToPosition(access)
	if !built {
		return ValueUnknown
	}

	var moves = GenerateLegalMoves(&pos)
	var allOpponentWins = true
	for _, m := range moves {
		switch childValue(state, access, &pos, m, index) {
		case ValueLoss:
			// opponent to move in child and loses there: this position wins.
			return ValueWin
		case ValueWin:
			// stays a loss candidate unless another move escapes.
		default:
			allOpponentWins = false
		}
	}
	if allOpponentWins && len(moves) > 0 {
		return ValueLoss
	}
	return ValueUnknown
}

// childValue resolves the value of the position reached by playing m
// from pos, whose pre-move index is index. A quiet move by a non-king
// piece takes the cheap IndexAfterMove path straight into this table's
// own values; a capture, promotion or king move rebuilds the position's
// BoardAccess and either looks the result up in this table (a capture
// that happens to leave the signature unchanged, e.g. nothing for this
// signature's own pieces) or, once that fails because the move carried
// the position into a different signature altogether, probes
// state.registry for an already-generated sibling's verdict.
func childValue(state *generationState, access *BoardAccess, pos *Position, m Move, index uint64) Value {
	if !m.IsCapture() && !m.IsPromotion() && m.MovingPiece() != King {
		if pieceIdx, ok := pieceSlotAt(access, m.From()); ok {
			if childIndex, ok := IndexAfterMove(state.pl, index, pieceIdx, m.From(), m.To()); ok && childIndex < state.size {
				return state.values[childIndex]
			}
		}
	}

	var child Position
	if !pos.MakeMove(m, &child) {
		return ValueUnknown
	}
	if childAccess, accessOk := boardAccessFrom(state.pl, &child); accessOk {
		if childIndex, idxOk := ComputeIndex(state.pl, childAccess); idxOk && childIndex < state.size {
			return state.values[childIndex]
		}
		return ValueUnknown
	}

	if state.registry == nil {
		return ValueUnknown
	}
	return probeRegistry(state.registry, &child)
}

// pieceSlotAt returns the PieceList index of the piece sitting on sq in
// access, the slot IndexAfterMove needs to know which digit to shift.
func pieceSlotAt(access *BoardAccess, sq int) (int, bool) {
	for i, s := range access.Squares {
		if s == sq {
			return i, true
		}
	}
	return 0, false
}

// probeRegistry translates search.Bitbase's side-to-move-relative
// centipawn convention back into the two-bit Value domain the generator
// works in: a positive score means the side to move in child (the
// opponent, from the position that played the move into child) wins
// there, which is a loss for the side that just moved and vice versa.
func probeRegistry(r *Registry, child *Position) Value {
	var cp, ok = r.Probe(child)
	if !ok {
		return ValueUnknown
	}
	switch {
	case cp > 0:
		return ValueWin
	case cp < 0:
		return ValueLoss
	default:
		return ValueDraw
	}
}

// boardAccessFrom rebuilds a BoardAccess from a concrete position by
// matching each pl.Pieces slot to an unused square of the matching piece
// type and color; it fails (ok=false) if the position's material no
// longer matches the signature, which happens after an irreversible move
// crosses into a different signature's territory and must be resolved by
// that signature's own table instead.
func boardAccessFrom(pl *PieceList, pos *Position) (*BoardAccess, bool) {
	var whiteKing = FirstOne(pos.Kings & pos.White)
	var blackKing = FirstOne(pos.Kings & pos.Black)

	var remaining = pos.AllPieces() &^ pos.Kings
	var squares = make([]int, len(pl.Pieces))
	for i, pc := range pl.Pieces {
		var bb = pieceBitboard(pos, pc.Piece) & pos.PiecesByColor(pc.White) & remaining
		if bb == 0 {
			return nil, false
		}
		var sq = FirstOne(bb)
		squares[i] = sq
		remaining &^= SquareMask[sq]
	}
	if remaining != 0 {
		return nil, false
	}

	return &BoardAccess{
		WhiteKing:   whiteKing,
		BlackKing:   blackKing,
		Squares:     squares,
		WhiteToMove: pos.WhiteMove,
	}, true
}

func pieceBitboard(pos *Position, piece int) uint64 {
	switch piece {
	case Pawn:
		return pos.Pawns
	case Knight:
		return pos.Knights
	case Bishop:
		return pos.Bishops
	case Rook:
		return pos.Rooks
	case Queen:
		return pos.Queens
	}
	return 0
}
