package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func TestMvvlva_BiggerVictimRanksHigher(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/3q1r2/4P3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var takeQueen = findMove(t, &p, SquareE4, SquareD5)
	var takeRook = findMove(t, &p, SquareE4, SquareF5)
	assert.Greater(t, mvvlva(takeQueen), mvvlva(takeRook))
}

func TestMoveIterator_TransMoveSortsFirst(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var wanted = findMove(t, &p, SquareG1, SquareF3)

	var mi = moveIterator{
		position:  &p,
		buffer:    make([]OrderedMove, MaxMoves),
		transMove: wanted,
	}
	mi.Init()
	mi.Reset()
	assert.Equal(t, wanted, mi.Next())
}

func TestMoveIterator_KillersOutrankQuietHistory(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var killer = findMove(t, &p, SquareB1, SquareC3)

	var mi = moveIterator{
		position: &p,
		buffer:   make([]OrderedMove, MaxMoves),
		killer1:  killer,
	}
	mi.Init()

	var killerScore, otherScore int32 = -1, -1
	for i := 0; i < mi.count; i++ {
		if mi.buffer[i].Move == killer {
			killerScore = mi.buffer[i].Key
		} else {
			if mi.buffer[i].Key > otherScore {
				otherScore = mi.buffer[i].Key
			}
		}
	}
	assert.Greater(t, killerScore, otherScore)
}

func TestMoveIteratorQS_OnlyGeneratesCapturesWhenNotInCheck(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var mi = moveIteratorQS{position: &p, buffer: make([]OrderedMove, MaxMoves)}
	mi.Init()
	require.Equal(t, 1, mi.count)
	assert.Equal(t, SquareD5, mi.buffer[0].Move.To())
}

func TestSortMoves_DescendingByKey(t *testing.T) {
	var ml = []OrderedMove{
		{Move: 1, Key: 5},
		{Move: 2, Key: 20},
		{Move: 3, Key: 1},
		{Move: 4, Key: 10},
	}
	sortMoves(ml)
	for i := 1; i < len(ml); i++ {
		assert.GreaterOrEqual(t, ml[i-1].Key, ml[i].Key)
	}
}

func TestMoveToTop_BringsBestToFront(t *testing.T) {
	var ml = []OrderedMove{
		{Move: 1, Key: 5},
		{Move: 2, Key: 20},
		{Move: 3, Key: 1},
	}
	moveToTop(ml)
	assert.EqualValues(t, 20, ml[0].Key)
}
