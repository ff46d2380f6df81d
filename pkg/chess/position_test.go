package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionFromFEN_InitialPosition(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)
	assert.True(t, p.WhiteMove)
	assert.Equal(t, WhiteKingSide|WhiteQueenSide|BlackKingSide|BlackQueenSide, p.CastleRights)
	assert.Equal(t, SquareNone, p.EpSquare)
	assert.Equal(t, 16, PopCount(p.Pawns))
	assert.Equal(t, 2, PopCount(p.Kings))
	assert.False(t, p.IsCheck())
}

func TestNewPositionFromFEN_RoundTrip(t *testing.T) {
	var fens = []string{
		InitialPositionFen,
		"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
		"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		require.NoError(t, err, fen)
		assert.Equal(t, fen, p.String(), "fen round trip")
	}
}

func TestNewPositionFromFEN_RejectsIllegal(t *testing.T) {
	// Both kings adjacent with black to move and white's king attacked -
	// a position that could never be reached legally.
	var _, err = NewPositionFromFEN("8/8/8/3kK3/8/8/8/8 b - - 0 1")
	assert.Error(t, err)
}

func TestMakeMove_EveryInitialMoveIsLegal(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	for _, m := range GenerateLegalMoves(&p) {
		var child Position
		var ok = p.MakeMove(m, &child)
		require.True(t, ok, m.String())
		// the king never vanishes and the side to move flips
		assert.NotEqual(t, uint64(0), child.Kings)
		assert.NotEqual(t, p.WhiteMove, child.WhiteMove)
	}
}

func TestMakeMove_EnPassant(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	require.NoError(t, err)
	var m = findMove(t, &p, SquareE5, SquareD6)
	require.True(t, m.IsCapture())

	var child Position
	require.True(t, p.MakeMove(m, &child))
	assert.Equal(t, Empty, child.WhatPiece(SquareD5))
	assert.Equal(t, Pawn, child.WhatPiece(SquareD6))
}

func TestMakeMove_CastlingMovesRook(t *testing.T) {
	var p, err = NewPositionFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)
	var m = findMove(t, &p, SquareE1, SquareG1)
	require.True(t, m.IsCastle())

	var child Position
	require.True(t, p.MakeMove(m, &child))
	assert.Equal(t, King, child.WhatPiece(SquareG1))
	assert.Equal(t, Rook, child.WhatPiece(SquareF1))
	assert.Equal(t, Empty, child.WhatPiece(SquareH1))
}

func TestMakeMove_PromotionReplacesPawn(t *testing.T) {
	var p, err = NewPositionFromFEN("k7/4P3/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var found bool
	for _, m := range GenerateLegalMoves(&p) {
		if m.From() == SquareE7 && m.To() == SquareE8 && m.Promotion() == Queen {
			var child Position
			require.True(t, p.MakeMove(m, &child))
			assert.Equal(t, Queen, child.WhatPiece(SquareE8))
			found = true
		}
	}
	assert.True(t, found, "expected a promotion to queen among legal moves")
}

func TestIsLegal_DistinctFromIsCheck(t *testing.T) {
	// Black to move, in check from the rook on e-file: IsCheck is true
	// (it describes the side to move) while IsLegal is also true (the
	// side NOT to move, white, is not attacked) - the two questions are
	// independent and this position answers them differently only in
	// which side they examine, not in value.
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/4R2K b - - 0 1")
	require.NoError(t, err)
	assert.True(t, p.IsLegal())
	assert.True(t, p.IsCheck())
}

func TestEqual(t *testing.T) {
	var a, _ = NewPositionFromFEN(InitialPositionFen)
	var b, _ = NewPositionFromFEN(InitialPositionFen)
	assert.True(t, a.Equal(&b))

	var child Position
	a.MakeMove(findMove(t, &a, SquareE2, SquareE4), &child)
	assert.False(t, a.Equal(&child))
}

func TestSignature(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, Signature("KPK"), p.Signature())
}

func findMove(t *testing.T, p *Position, from, to int) Move {
	t.Helper()
	for _, m := range GenerateLegalMoves(p) {
		if m.From() == from && m.To() == to {
			return m
		}
	}
	t.Fatalf("no legal move %s-%s", SquareName(from), SquareName(to))
	return MoveEmpty
}
