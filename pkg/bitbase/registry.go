package bitbase

import (
	"fmt"
	"math/bits"
	"path/filepath"
	"sync"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

// Registry owns every bitbase file currently attached to a search
// engine, keyed by material signature. It is the thread-safe,
// once-per-signature-initialized handle the search package reaches
// through its Bitbase interface; callers never touch *File directly.
type Registry struct {
	mu    sync.RWMutex
	dir   string
	cache int
	files map[Signature]*File
	plist map[Signature]*PieceList
}

// NewRegistry opens bitbase files lazily from dir on first probe,
// keeping at most cacheClustersPerFile clusters of each open file
// resident.
func NewRegistry(dir string, cacheClustersPerFile int) *Registry {
	return &Registry{
		dir:   dir,
		cache: cacheClustersPerFile,
		files: make(map[Signature]*File),
		plist: make(map[Signature]*PieceList),
	}
}

// Attach preloads a signature's file, failing fast on IO error or
// magic/version mismatch rather than on the first probe under search.
func (r *Registry) Attach(sig Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[sig]; ok {
		return nil
	}
	var f, err = OpenFile(r.pathFor(sig), r.cache)
	if err != nil {
		return fmt.Errorf("bitbase: attach %s: %w", sig, err)
	}
	r.files[sig] = f
	r.plist[sig] = NewPieceList(sig)
	return nil
}

func (r *Registry) pathFor(sig Signature) string {
	return filepath.Join(r.dir, string(sig)+".btb")
}

// AttachEmbedded registers sig against an in-memory .btb blob (typically
// a go:embed resource compiled into the binary) instead of a file on
// dir, the registry-level counterpart of Attach for the §6 compiled-in
// header variant.
func (r *Registry) AttachEmbedded(sig Signature, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[sig]; ok {
		return nil
	}
	var f, err = LoadEmbedded(data, r.cache)
	if err != nil {
		return fmt.Errorf("bitbase: attach embedded %s: %w", sig, err)
	}
	r.files[sig] = f
	r.plist[sig] = NewPieceList(sig)
	return nil
}

// Probe implements search.Bitbase: it canonicalizes p's material
// signature (stronger side as white, per the index's viewpoint
// convention), attaches the matching table on demand, and converts the
// stored two-bit Value into a centipawn-scale search value.
func (r *Registry) Probe(p *Position) (int, bool) {
	var sig = p.Signature()
	var mirrored, flip = canonicalSignature(sig)

	r.mu.RLock()
	var f, hasFile = r.files[mirrored]
	var pl, hasPl = r.plist[mirrored]
	r.mu.RUnlock()

	if !hasFile {
		if err := r.Attach(mirrored); err != nil {
			return 0, false
		}
		r.mu.RLock()
		f, hasFile = r.files[mirrored]
		pl, hasPl = r.plist[mirrored]
		r.mu.RUnlock()
		if !hasFile {
			return 0, false
		}
	}
	if !hasPl {
		return 0, false
	}

	var access, ok = toCanonicalAccess(p, flip)
	if !ok {
		return 0, false
	}
	var index, idxOk = ComputeIndex(pl, access)
	if !idxOk {
		return 0, false
	}
	var value, err = f.Probe(index)
	if err != nil {
		return 0, false
	}

	switch value {
	case ValueWin:
		return bitbaseWinValue, true
	case ValueLoss:
		return -bitbaseWinValue, true
	case ValueDraw:
		return 0, true
	default:
		return 0, false
	}
}

// bitbaseWinValue is a fixed score well inside the search's mate window,
// distinguishable from a real mate score but large enough to always
// steer the search toward the won side.
const bitbaseWinValue = 12000

// canonicalSignature reorders a signature so the side with more non-king
// pieces is listed first (the index's always-white-is-stronger convention),
// reporting whether the board must be read with colors flipped to match.
// Signature strings are generated as "K<white pieces>K<black pieces>"
// with white first by construction (see chess.Signature), so the only
// reordering needed is swapping the two halves when black has strictly
// more non-king pieces (a count, not a material value).
func canonicalSignature(sig Signature) (Signature, bool) {
	var s = string(sig)
	var secondK = 1
	for secondK < len(s) && s[secondK] != 'K' {
		secondK++
	}
	var white, black = s[1:secondK], s[secondK+1:]
	if len(black) > len(white) {
		return Signature("K" + black + "K" + white), true
	}
	return sig, false
}

// toCanonicalAccess reads p's pieces into BoardAccess order matching
// registry.plist[sig].Pieces, flipping colors first if flip is set.
func toCanonicalAccess(p *Position, flip bool) (*BoardAccess, bool) {
	var pos = *p
	if flip {
		pos = mirrorColors(pos)
	}

	var wk = FirstOne(pos.Kings & pos.White)
	var bk = FirstOne(pos.Kings & pos.Black)
	var sig = pos.Signature()
	var pl = NewPieceList(sig)

	var remaining = pos.AllPieces() &^ pos.Kings
	var squares = make([]int, len(pl.Pieces))
	for i, pc := range pl.Pieces {
		var bb = pieceBitboard(&pos, pc.Piece) & pos.PiecesByColor(pc.White) & remaining
		if bb == 0 {
			return nil, false
		}
		var sq = FirstOne(bb)
		squares[i] = sq
		remaining &^= SquareMask[sq]
	}

	return &BoardAccess{WhiteKing: wk, BlackKing: bk, Squares: squares, WhiteToMove: pos.WhiteMove}, true
}

func mirrorColors(p Position) Position {
	var result Position
	result.White, result.Black = bits.ReverseBytes64(p.Black), bits.ReverseBytes64(p.White)
	result.Pawns = bits.ReverseBytes64(p.Pawns)
	result.Knights = bits.ReverseBytes64(p.Knights)
	result.Bishops = bits.ReverseBytes64(p.Bishops)
	result.Rooks = bits.ReverseBytes64(p.Rooks)
	result.Queens = bits.ReverseBytes64(p.Queens)
	result.Kings = bits.ReverseBytes64(p.Kings)
	result.WhiteMove = !p.WhiteMove
	return result
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		f.Close()
	}
}
