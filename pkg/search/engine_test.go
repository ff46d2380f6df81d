package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
	"github.com/jlchizhov/corebitbase/pkg/eval"
)

func TestEngine_FindsForcedMateInOne(t *testing.T) {
	// White king g6, queen f1, black king boxed into h8: Qf1-f8 is mate.
	var p, err = NewPositionFromFEN("7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	require.NoError(t, err)

	var engine = NewEngine(eval.NewService())
	var info = engine.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 3},
	})

	require.NotEmpty(t, info.MainLine)
	assert.Equal(t, "f1f8", info.MainLine[0].String())
	assert.Equal(t, 1, info.Score.Mate)
}

func TestEngine_SinglesOutTheOnlyLegalMove(t *testing.T) {
	// Black king in check from an undefended queen on g7: every escape
	// square is also covered by the queen, so capturing it is the only
	// legal reply.
	var p, err = NewPositionFromFEN("7k/6Q1/8/8/8/8/8/K7 b - - 0 1")
	require.NoError(t, err)

	var legal = GenerateLegalMoves(&p)
	require.Len(t, legal, 1)

	var engine = NewEngine(eval.NewService())
	var info = engine.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 4},
	})
	require.NotEmpty(t, info.MainLine)
	assert.Equal(t, legal[0], info.MainLine[0])
}

func TestEngine_StopsAtRequestedDepth(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var engine = NewEngine(eval.NewService())
	var info = engine.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 2},
	})
	assert.LessOrEqual(t, info.Depth, 2)
	assert.NotEmpty(t, info.MainLine)
}

func TestGetHistoryKeys_StopsAtLastIrreversibleMove(t *testing.T) {
	var p0, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var p1 Position
	var e4 = findMove(t, &p0, SquareE2, SquareE4)
	require.True(t, p0.MakeMove(e4, &p1)) // pawn push: resets Rule50 to 0

	var p2 Position
	var nf6 = findMove(t, &p1, SquareG8, SquareF6)
	require.True(t, p1.MakeMove(nf6, &p2)) // quiet knight move: Rule50 keeps counting

	var keys = getHistoryKeys([]Position{p0, p1, p2})
	assert.Equal(t, 1, keys[p1.Key])
	assert.Equal(t, 1, keys[p2.Key])
	assert.Zero(t, keys[p0.Key], "the pawn push that zeroed Rule50 ends the scan before p0")
}
