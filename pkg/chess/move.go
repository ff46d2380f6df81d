package chess

// Move packs from, to, moving piece, captured piece and promotion piece
// into 21 bits: from|to<<6|movingPiece<<12|capturedPiece<<15|promotion<<18.
type Move int32

const MoveEmpty Move = 0

type OrderedMove struct {
	Move Move
	Key  int32
}

func makeMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^ (capturedPiece << 15))
}

func makePawnMove(from, to, capturedPiece, promotion int) Move {
	return Move(from ^ (to << 6) ^ (Pawn << 12) ^ (capturedPiece << 15) ^ (promotion << 18))
}

func (m Move) From() int {
	return int(m & 63)
}

func (m Move) To() int {
	return int((m >> 6) & 63)
}

func (m Move) MovingPiece() int {
	return int((m >> 12) & 7)
}

func (m Move) CapturedPiece() int {
	return int((m >> 15) & 7)
}

func (m Move) Promotion() int {
	return int((m >> 18) & 7)
}

func (m Move) IsCapture() bool {
	return m.CapturedPiece() != Empty
}

func (m Move) IsPromotion() bool {
	return m.Promotion() != Empty
}

func (m Move) IsCastle() bool {
	return m.MovingPiece() == King && AbsDelta(m.From(), m.To()) == 2
}

// IsEnPassant reports whether m is an en-passant capture, given the
// epSquare of the position it was generated from. The move itself
// carries no en-passant flag bit; a plain diagonal pawn capture and an
// en-passant capture both encode CapturedPiece() == Pawn.
func (m Move) IsEnPassant(epSquare int) bool {
	return m.MovingPiece() == Pawn && m.To() == epSquare && epSquare != SquareNone
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var sPromotion = ""
	if m.Promotion() != Empty {
		sPromotion = string("nbrq"[m.Promotion()-Knight])
	}
	return SquareName(m.From()) + SquareName(m.To()) + sPromotion
}

func addPromotions(ml []OrderedMove, move Move) (count int) {
	ml[0].Move = move ^ Move(Queen<<18)
	ml[1].Move = move ^ Move(Rook<<18)
	ml[2].Move = move ^ Move(Bishop<<18)
	ml[3].Move = move ^ Move(Knight<<18)
	return 4
}
