// Package bitbase implements the endgame bitbase subsystem: the bit
// index bijection, the compressed clustered on-disk format, the
// retrograde fixed-point generator and a signature-keyed registry the
// search kernel probes at material transitions.
package bitbase

import (
	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

// AmountOfTwoKingPositions is the number of ordered (strongerKing,
// weakerKing) square pairs that are neither equal nor adjacent
// (4096 - 64 - 420), before any mirroring. kingIndexMap assigns fewer
// ids than this, so it bounds the first dimension of every index
// computed by this package.
const AmountOfTwoKingPositions = 3612

const pawnSquareCount = 48 // ranks 2..7, all 8 files

// kingIndexMap[strongerKing][weakerKing] collapses the 64x64 king-pair
// space down to AmountOfTwoKingPositions by mapping every board symmetry
// (left-right mirror, and without pawns also up-down and diagonal) onto
// one canonical representative, and marking adjacent-king pairs illegal
// with -1. Grounded on the teacher pack's bitbaseindex.h king-index
// table; this Go port keeps only the left-right and up-down mirrors
// (no diagonal), trading a larger table for a much simpler bijection -
// documented as a deliberate simplification in the design ledger.
var kingIndexMap [64][64]int

func init() {
	var next = 0
	for strongerKing := 0; strongerKing < 64; strongerKing++ {
		for weakerKing := 0; weakerKing < 64; weakerKing++ {
			kingIndexMap[strongerKing][weakerKing] = -1
		}
	}
	for strongerKing := 0; strongerKing < 64; strongerKing++ {
		for weakerKing := 0; weakerKing < 64; weakerKing++ {
			if kingIndexMap[strongerKing][weakerKing] != -1 {
				continue
			}
			if isAdjacent(strongerKing, weakerKing) {
				continue
			}
			var id = next
			next++
			for _, mirrored := range kingMirrors(strongerKing, weakerKing) {
				if kingIndexMap[mirrored[0]][mirrored[1]] == -1 {
					kingIndexMap[mirrored[0]][mirrored[1]] = id
				}
			}
		}
	}
}

func isAdjacent(a, b int) bool {
	return SquareDistance(a, b) <= 1
}

// kingMirrors returns the orbit of (strongerKing, weakerKing) under
// left-right and up-down board mirroring (4 symmetric images, including
// the identity).
func kingMirrors(strongerKing, weakerKing int) [][2]int {
	var flipV = func(sq int) int { return FlipSquare(sq) }
	var flipH = func(sq int) int { return MirrorColumn(sq) }
	return [][2]int{
		{strongerKing, weakerKing},
		{flipH(strongerKing), flipH(weakerKing)},
		{flipV(strongerKing), flipV(weakerKing)},
		{flipH(flipV(strongerKing)), flipH(flipV(weakerKing))},
	}
}

// PieceList is the ordered tuple (WK, BK, p2, p3, ...) for a signature:
// the stronger side is always listed first, and within each color the
// pieces keep the signature's letter order (chess.Signature writes queen,
// rook, bishop, knight, pawn), so pawns are not moved ahead of the other
// pieces. Squares are in the canonical viewpoint where the stronger
// side is white and SideToMove is folded into the index separately.
type PieceList struct {
	Signature   Signature
	Pieces      []pieceSlot
	HasPawn     bool
	strongerPop int // non-king piece count of the stronger side
}

type pieceSlot struct {
	Piece int
	White bool
}

// NewPieceList decomposes a signature string like "KQKR" into the
// ordered piece tuple the index functions walk over.
func NewPieceList(sig Signature) *PieceList {
	var pl = &PieceList{Signature: sig}
	var s = string(sig)
	var secondK = -1
	for i := 1; i < len(s); i++ {
		if s[i] == 'K' {
			secondK = i
			break
		}
	}
	if secondK < 0 {
		secondK = len(s)
	}
	for i := 1; i < secondK; i++ {
		pl.Pieces = append(pl.Pieces, pieceSlot{Piece: letterToPiece(s[i]), White: true})
	}
	for i := secondK + 1; i < len(s); i++ {
		pl.Pieces = append(pl.Pieces, pieceSlot{Piece: letterToPiece(s[i]), White: false})
	}
	for _, pc := range pl.Pieces {
		if pc.Piece == Pawn {
			pl.HasPawn = true
		}
		if pc.White {
			pl.strongerPop++
		}
	}
	return pl
}

func letterToPiece(l byte) int {
	switch l {
	case 'P':
		return Pawn
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	}
	return Empty
}

// Size returns the index cardinality for pl: the full range compute_index
// can ever return, legal or not.
func (pl *PieceList) Size() uint64 {
	var squareChoices = uint64(1)
	for _, pc := range pl.Pieces {
		if pc.Piece == Pawn {
			squareChoices *= pawnSquareCount
		} else {
			squareChoices *= 64
		}
	}
	return uint64(AmountOfTwoKingPositions) * squareChoices * 2
}

// BoardAccess reads the squares compute_index and index_to_position both
// need, always from the stronger-side-is-white viewpoint.
type BoardAccess struct {
	WhiteKing, BlackKing int
	Squares              []int // parallel to PieceList.Pieces
	WhiteToMove          bool
}

// ComputeIndex implements §4.A's compute_index: it maps a legal placement
// to a dense integer. b must already hold the placement as seen with the
// stronger side playing white; Registry.Probe swaps colors and flips
// ranks (mirrorColors) before calling when the actual stronger side is
// black.
func ComputeIndex(pl *PieceList, b *BoardAccess) (uint64, bool) {
	var kingId = kingIndexMap[b.WhiteKing][b.BlackKing]
	if kingId < 0 {
		return 0, false
	}

	var index = uint64(kingId)
	for i, pc := range pl.Pieces {
		var sq = b.Squares[i]
		var width uint64
		if pc.Piece == Pawn {
			width = pawnSquareCount
			var mapped = pawnIndex(sq)
			if mapped < 0 {
				return 0, false
			}
			index = index*width + uint64(mapped)
		} else {
			width = 64
			index = index*width + uint64(sq)
		}
	}

	index *= 2
	if !b.WhiteToMove {
		index++
	}
	return index, true
}

// IndexAfterMove derives the index reached by sliding the piece in
// pieceIdx from fromSquare to toSquare, given before (the pre-move
// index), without walking IndexToPosition's O(64x64) king-pair scan:
// only that one piece's digit changes, plus the side-to-move bit, which
// always flips. It only applies to a quiet, same-signature move by a
// non-king piece; callers whose move is a capture, a promotion or a
// king move must rebuild a fresh BoardAccess and call ComputeIndex
// instead, since those change the king-pair digit or the piece list
// itself.
func IndexAfterMove(pl *PieceList, before uint64, pieceIdx int, fromSquare, toSquare int) (uint64, bool) {
	if pieceIdx < 0 || pieceIdx >= len(pl.Pieces) {
		return 0, false
	}

	var width = 64
	var fromDigit, toDigit = fromSquare, toSquare
	if pl.Pieces[pieceIdx].Piece == Pawn {
		width = pawnSquareCount
		fromDigit, toDigit = pawnIndex(fromSquare), pawnIndex(toSquare)
		if fromDigit < 0 || toDigit < 0 {
			return 0, false
		}
	}
	if toDigit < 0 || toDigit >= width {
		return 0, false
	}

	var suffix = uint64(1)
	for i := pieceIdx + 1; i < len(pl.Pieces); i++ {
		if pl.Pieces[i].Piece == Pawn {
			suffix *= pawnSquareCount
		} else {
			suffix *= 64
		}
	}

	var idx = int64(before/2) + int64(toDigit-fromDigit)*int64(suffix)
	if idx < 0 {
		return 0, false
	}

	var sideBit = uint64(1) - before%2
	return uint64(idx)*2 + sideBit, true
}

// pawnIndex maps a1..h8 minus the back ranks onto [0, 48).
func pawnIndex(sq int) int {
	var rank = Rank(sq)
	if rank == Rank1 || rank == Rank8 {
		return -1
	}
	return sq - 8
}

func unpawnIndex(i int) int {
	return i + 8
}

// IndexToPosition is the inverse of ComputeIndex: given a dense index, it
// recovers the board access record, or reports the index as structurally
// illegal (decodes to overlapping squares or an impossible king pair).
func IndexToPosition(pl *PieceList, index uint64) (*BoardAccess, bool) {
	var whiteToMove = index%2 == 0
	index /= 2

	var squares = make([]int, len(pl.Pieces))
	for i := len(pl.Pieces) - 1; i >= 0; i-- {
		var width uint64 = 64
		if pl.Pieces[i].Piece == Pawn {
			width = pawnSquareCount
		}
		var v = index % width
		index /= width
		if pl.Pieces[i].Piece == Pawn {
			squares[i] = unpawnIndex(int(v))
		} else {
			squares[i] = int(v)
		}
	}

	var kingId = int(index)
	var wk, bk = -1, -1
	for w := 0; w < 64 && wk < 0; w++ {
		for bb := 0; bb < 64; bb++ {
			if kingIndexMap[w][bb] == kingId {
				wk, bk = w, bb
				break
			}
		}
	}
	if wk < 0 {
		return nil, false
	}

	var occupied = SquareMask[wk] | SquareMask[bk]
	for _, sq := range squares {
		if (occupied & SquareMask[sq]) != 0 {
			return nil, false
		}
		occupied |= SquareMask[sq]
	}

	return &BoardAccess{WhiteKing: wk, BlackKing: bk, Squares: squares, WhiteToMove: whiteToMove}, true
}

// ToPosition builds a concrete chess.Position from a decoded BoardAccess
// and piece list, for probing move generation and legality during
// generation.
func (pl *PieceList) ToPosition(b *BoardAccess) (Position, bool) {
	var board [64]struct {
		Type int
		Side bool
	}
	board[b.WhiteKing] = struct {
		Type int
		Side bool
	}{King, true}
	board[b.BlackKing] = struct {
		Type int
		Side bool
	}{King, false}

	for i, pc := range pl.Pieces {
		var sq = b.Squares[i]
		if board[sq].Type != Empty {
			return Position{}, false
		}
		board[sq] = struct {
			Type int
			Side bool
		}{pc.Piece, pc.White}
	}

	var fen = encodeFEN(board, b.WhiteToMove)
	var pos, err = NewPositionFromFEN(fen)
	if err != nil {
		return Position{}, false
	}
	return pos, true
}

func encodeFEN(board [64]struct {
	Type int
	Side bool
}, whiteToMove bool) string {
	var letters = "pnbrqk"
	var rows [8]string
	for rank := 0; rank < 8; rank++ {
		var run = 0
		var row string
		for file := 0; file < 8; file++ {
			var sq = MakeSquare(file, rank)
			if board[sq].Type == Empty {
				run++
				continue
			}
			if run > 0 {
				row += itoa(run)
				run = 0
			}
			var ch = string(letters[board[sq].Type-Pawn])
			if board[sq].Side {
				ch = upper(ch)
			}
			row += ch
		}
		if run > 0 {
			row += itoa(run)
		}
		rows[7-rank] = row
	}
	var placement string
	for i, row := range rows {
		placement += row
		if i != 7 {
			placement += "/"
		}
	}
	var side = "b"
	if whiteToMove {
		side = "w"
	}
	return placement + " " + side + " - - 0 1"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func upper(s string) string {
	var b = []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
