package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func TestUpdateHistory_GoodMoveDriftsTowardMax(t *testing.T) {
	var v int16
	for i := 0; i < 50; i++ {
		updateHistory(&v, 400, true)
	}
	assert.Greater(t, int(v), historyMax/2)
}

func TestUpdateHistory_BadMoveDriftsTowardMin(t *testing.T) {
	var v int16
	for i := 0; i < 50; i++ {
		updateHistory(&v, 400, false)
	}
	assert.Less(t, int(v), -historyMax/2)
}

func TestPieceSquareIndex_EncodesSideSeparately(t *testing.T) {
	var m = makeMoveForTest(SquareE2, SquareE4, Pawn, Empty)
	assert.NotEqual(t, pieceSquareIndex(true, m), pieceSquareIndex(false, m))
}

func TestSideFromToIndex_DistinguishesFromAndTo(t *testing.T) {
	var m1 = makeMoveForTest(SquareE2, SquareE4, Pawn, Empty)
	var m2 = makeMoveForTest(SquareD2, SquareD4, Pawn, Empty)
	assert.NotEqual(t, sideFromToIndex(true, m1), sideFromToIndex(true, m2))
}

func TestHistoryService_ClearZeroesTables(t *testing.T) {
	var h historyService
	h.mainHistory[0] = 500
	h.continuationHistory[0][0] = -500
	h.Clear()
	assert.Zero(t, h.mainHistory[0])
	assert.Zero(t, h.continuationHistory[0][0])
}

// makeMoveForTest builds a Move the same way the move generator does,
// without depending on package-private chess constructors.
func makeMoveForTest(from, to, movingPiece, capturedPiece int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^ (capturedPiece << 15))
}
