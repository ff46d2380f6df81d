package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perft counts leaf nodes at a fixed depth by brute-force move generation;
// the depth-1..3 counts from the initial position are the standard values
// every legal-move-generator test in the wild checks itself against.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	var total int64
	var child Position
	for _, m := range GenerateLegalMoves(p) {
		if p.MakeMove(m, &child) {
			total += perft(&child, depth-1)
		}
	}
	return total
}

func TestPerft_InitialPosition(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	assert.EqualValues(t, 20, perft(&p, 1))
	assert.EqualValues(t, 400, perft(&p, 2))
	assert.EqualValues(t, 8902, perft(&p, 3))
}

func TestPerft_KiwipeteCastlingAndPromotions(t *testing.T) {
	// The "kiwipete" position: widely used because it exercises castling,
	// en-passant and promotions all at once.
	var p, err = NewPositionFromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	assert.EqualValues(t, 48, perft(&p, 1))
	assert.EqualValues(t, 2039, perft(&p, 2))
}

func TestGenerateMoves_StalemateHasNoMoves(t *testing.T) {
	var p, err = NewPositionFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.Empty(t, GenerateLegalMoves(&p))
	assert.False(t, p.IsCheck())
}

func TestGenerateMoves_CheckmateHasNoMoves(t *testing.T) {
	// Black king cornered on h8, mated by a queen on the back rank with
	// the white king on g6 covering g7/h7/g8 between them.
	var p, err = NewPositionFromFEN("5Q1k/8/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.Empty(t, GenerateLegalMoves(&p))
	assert.True(t, p.IsCheck())
}

func TestGenerateMoves_InCheckOnlyEvasions(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/4R3/4K3 b - - 0 1")
	require.NoError(t, err)
	require.True(t, p.IsCheck())
	for _, m := range GenerateLegalMoves(&p) {
		var child Position
		require.True(t, p.MakeMove(m, &child))
		assert.True(t, child.IsLegal(), "every returned legal move must leave the mover's king safe")
	}
}

func TestMakeMoveLAN(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var child, ok = p.MakeMoveLAN("e2e4")
	require.True(t, ok)
	assert.Equal(t, Pawn, child.WhatPiece(SquareE4))
	assert.False(t, child.WhiteMove)
}

func TestMakeMoveLAN_Promotion(t *testing.T) {
	var p, err = NewPositionFromFEN("k7/4P3/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var child, ok = p.MakeMoveLAN("e7e8q")
	require.True(t, ok)
	assert.Equal(t, Queen, child.WhatPiece(SquareE8))
}

func TestMakeMoveLAN_RejectsIllegalMove(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var _, ok = p.MakeMoveLAN("e2e5")
	assert.False(t, ok)
}

func TestMoveString(t *testing.T) {
	assert.Equal(t, "0000", MoveEmpty.String())
	var m = makeMove(SquareE2, SquareE4, Pawn, Empty)
	assert.Equal(t, "e2e4", m.String())
}
