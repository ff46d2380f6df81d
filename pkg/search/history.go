package search

import . "github.com/jlchizhov/corebitbase/pkg/chess"

const historyMax = 1 << 14

type historyService struct {
	mainHistory         [1 << 13]int16
	continuationHistory [1 << 11][1 << 11]int16
}

func (h *historyService) Clear() {
	for i := range h.mainHistory {
		h.mainHistory[i] = 0
	}
	for i := range h.continuationHistory {
		for j := range h.continuationHistory[i] {
			h.continuationHistory[i][j] = 0
		}
	}
}

type historyContext struct {
	history    *historyService
	sideToMove bool
	cont1      int
	cont2      int
}

func (t *thread) getHistoryContext(height int) historyContext {
	var sideToMove = t.stack[height].position.WhiteMove
	var cont1 = -1
	if prev1 := t.stack[height].position.LastMove; prev1 != MoveEmpty {
		cont1 = pieceSquareIndex(!sideToMove, prev1)
	}
	var cont2 = -1
	if height > 0 {
		if prev2 := t.stack[height-1].position.LastMove; prev2 != MoveEmpty {
			cont2 = pieceSquareIndex(sideToMove, prev2)
		}
	}
	return historyContext{
		history:    &t.history,
		sideToMove: sideToMove,
		cont1:      cont1,
		cont2:      cont2,
	}
}

func (h *historyContext) ReadTotal(side bool, m Move) int {
	var score = int(h.history.mainHistory[sideFromToIndex(side, m)])
	var pieceToIndex = pieceSquareIndex(side, m)
	if h.cont1 != -1 {
		score += int(h.history.continuationHistory[h.cont1][pieceToIndex])
	}
	if h.cont2 != -1 {
		score += int(h.history.continuationHistory[h.cont2][pieceToIndex])
	}
	return score
}

func (h *historyContext) Update(quietsSearched []Move, bestMove Move, depth int) {
	var bonus = min(depth*depth, 400)
	var sideToMove = h.sideToMove

	for _, m := range quietsSearched {
		var good = m == bestMove

		var fromToIndex = sideFromToIndex(sideToMove, m)
		updateHistory(&h.history.mainHistory[fromToIndex], bonus, good)
		var pieceToIndex = pieceSquareIndex(sideToMove, m)
		if h.cont1 != -1 {
			updateHistory(&h.history.continuationHistory[h.cont1][pieceToIndex], bonus, good)
		}
		if h.cont2 != -1 {
			updateHistory(&h.history.continuationHistory[h.cont2][pieceToIndex], bonus, good)
		}

		if good {
			break
		}
	}
}

// updateHistory is an exponential moving average toward +/- historyMax.
func updateHistory(v *int16, bonus int, good bool) {
	var newVal = -historyMax
	if good {
		newVal = historyMax
	}
	*v += int16((newVal - int(*v)) * bonus / 512)
}

func pieceSquareIndex(side bool, move Move) int {
	var result = (move.MovingPiece() << 6) | move.To()
	if side {
		result |= 1 << 9
	}
	return result
}

func sideFromToIndex(side bool, move Move) int {
	var result = (move.From() << 6) | move.To()
	if side {
		result |= 1 << 12
	}
	return result
}
