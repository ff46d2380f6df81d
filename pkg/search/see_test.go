package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func findMove(t *testing.T, p *Position, from, to int) Move {
	t.Helper()
	for _, m := range GenerateLegalMoves(p) {
		if m.From() == from && m.To() == to {
			return m
		}
	}
	require.Fail(t, "no legal move found", "from %d to %d", from, to)
	return MoveEmpty
}

func TestSeeGE_UndefendedCaptureWins(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/3r4/4P3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var move = findMove(t, &p, SquareE4, SquareD5)
	assert.True(t, SeeGE(&p, move, 0))
}

func TestSeeGE_DefendedCaptureLoses(t *testing.T) {
	// Qxd5 wins a pawn but a knight on b6 recaptures, losing the queen.
	var p, err = NewPositionFromFEN("4k3/8/1n6/3p4/4Q3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var move = findMove(t, &p, SquareE4, SquareD5)
	assert.False(t, SeeGE(&p, move, 0))
}

func TestSeeGE_EqualRookTradeMeetsZeroThreshold(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/3r4/8/3r4/8/3R4/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var move = findMove(t, &p, SquareD3, SquareD5)
	assert.True(t, SeeGE(&p, move, 0))
	assert.False(t, SeeGE(&p, move, 1))
}

func TestSeeGEZero_MatchesSeeGEWithZeroThreshold(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/3r4/4P3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var move = findMove(t, &p, SquareE4, SquareD5)
	assert.Equal(t, SeeGE(&p, move, 0), seeGEZero(&p, move))
}
