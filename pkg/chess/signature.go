package chess

import "strings"

// Signature is the material makeup of a position, used to decide whether a
// bitbase exists for it and to key the bitbase registry. It lists each
// side's non-king pieces ordered strongest-to-weakest, e.g. "KQKR" for a
// white queen against a black rook, "KPK" for a lone pawn ending.
type Signature string

func computeSignature(p *Position) Signature {
	var sb strings.Builder
	sb.WriteString("K")
	appendPieceLetters(&sb, p, true)
	sb.WriteString("K")
	appendPieceLetters(&sb, p, false)
	return Signature(sb.String())
}

func appendPieceLetters(sb *strings.Builder, p *Position, white bool) {
	var side = p.PiecesByColor(white)
	for _, bb := range []struct {
		letter byte
		bits   uint64
	}{
		{'Q', p.Queens},
		{'R', p.Rooks},
		{'B', p.Bishops},
		{'N', p.Knights},
		{'P', p.Pawns},
	} {
		var count = PopCount(bb.bits & side)
		for i := 0; i < count; i++ {
			sb.WriteByte(bb.letter)
		}
	}
}

// PieceCounts returns, for side, the count of each non-king piece type
// indexed by Knight..Queen, and the pawn count separately, matching the
// ordering the bitbase generator's piece list uses.
func (p *Position) PieceCounts(white bool) (pawns, knights, bishops, rooks, queens int) {
	var side = p.PiecesByColor(white)
	return PopCount(p.Pawns & side), PopCount(p.Knights & side),
		PopCount(p.Bishops & side), PopCount(p.Rooks & side), PopCount(p.Queens & side)
}

// TotalPieceCount returns the number of pieces on the board, kings
// included; the generator only builds bitbases below a small threshold.
func (p *Position) TotalPieceCount() int {
	return PopCount(p.AllPieces())
}
