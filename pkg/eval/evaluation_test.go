package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func TestEvaluate_SymmetricPositionIsZero(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)
	assert.Equal(t, 0, NewService().Evaluate(&p))
}

func TestEvaluate_MaterialAdvantageFavorsSideToMove(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	require.NoError(t, err)
	assert.Greater(t, NewMaterial().Evaluate(&p), 0)
}

func TestEvaluate_IsFromSideToMovePerspective(t *testing.T) {
	var white, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	require.NoError(t, err)
	var black, err2 = NewPositionFromFEN("4k3/8/8/8/8/8/8/R3K3 b - - 0 1")
	require.NoError(t, err2)

	var service = NewMaterial()
	assert.Equal(t, service.Evaluate(&white), -service.Evaluate(&black))
}

func TestEvaluate_BishopPairBonus(t *testing.T) {
	var withPair, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/2BBK3 w - - 0 1")
	require.NoError(t, err)
	var withOne, err2 = NewPositionFromFEN("4k3/8/8/8/8/8/8/3BK3 w - - 0 1")
	require.NoError(t, err2)

	var service = NewMaterial()
	// two minors vs one: material alone already favors the pair, but the
	// per-bishop difference should exceed a single minor's raw value once
	// the pair bonus is folded in.
	assert.Greater(t, service.Evaluate(&withPair), service.Evaluate(&withOne))
}

func TestEvaluate_InsufficientMaterialIsScaledDown(t *testing.T) {
	// lone knight ahead, no pawns: scaleEndgame should shrink the score
	// toward a draw rather than report a meaningful advantage.
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/N3K3 w - - 0 1")
	require.NoError(t, err)
	var full = NewService().Evaluate(&p)
	var material = NewMaterial().Evaluate(&p)
	assert.Less(t, full, material)
}
