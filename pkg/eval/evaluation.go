// Package eval is the static evaluation function the search kernel
// treats as an opaque oracle. It is composed from independent scoring
// passes - material, piece-square placement, pawn structure, mobility,
// king safety and an endgame-phase taper - each gated by a capability
// flag in Weights so a caller can build a cheaper or richer evaluator
// for the same Service without touching the search package.
package eval

import (
	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

// Capability flags select which scoring passes Service.Evaluate runs.
const (
	CapMaterial = 1 << iota
	CapPawns
	CapMobility
	CapKingSafety
	CapEndgame
)

const CapAll = CapMaterial | CapPawns | CapMobility | CapKingSafety | CapEndgame

const (
	minorPhase = 4
	rookPhase  = 6
	queenPhase = 12
	totalPhase = 2 * (4*minorPhase + 2*rookPhase + queenPhase)
)

var pieceValueMiddle = [King + 1]int{Pawn: 82, Knight: 337, Bishop: 365, Rook: 477, Queen: 1025}
var pieceValueEnd = [King + 1]int{Pawn: 94, Knight: 281, Bishop: 297, Rook: 512, Queen: 936}

const bishopPairBonus = 30
const doubledPawnPenalty = 10
const passedPawnBonus = 20
const mobilityWeight = 2
const kingShieldBonus = 8

// Service is a tapered material-and-positional evaluator: middlegame and
// endgame scores are computed independently and blended by the amount of
// remaining material (the "phase"), the same technique the teacher's
// PST-based evaluator uses.
type Service struct {
	Capabilities int
}

// NewService returns an evaluator running every capability; NewMaterial
// returns the cheap material-only evaluator used by tests.
func NewService() *Service {
	return &Service{Capabilities: CapAll}
}

func NewMaterial() *Service {
	return &Service{Capabilities: CapMaterial}
}

func (e *Service) Evaluate(p *Position) int {
	var middle, end, phase = e.taperedMaterial(p)

	if e.Capabilities&CapPawns != 0 {
		var m, n = e.pawnStructure(p)
		middle += m
		end += n
	}
	if e.Capabilities&CapMobility != 0 {
		var m = e.mobility(p)
		middle += m
		end += m
	}
	if e.Capabilities&CapKingSafety != 0 {
		var m = e.kingSafety(p)
		middle += m
	}

	var score = (middle*phase + end*(totalPhase-phase)) / totalPhase

	if e.Capabilities&CapEndgame != 0 {
		score = e.scaleEndgame(p, score, phase)
	}

	if !p.WhiteMove {
		score = -score
	}
	return score
}

func (e *Service) taperedMaterial(p *Position) (middle, end, phase int) {
	var pawns, knights, bishops, rooks, queens = diff(p, Pawn), diff(p, Knight), diff(p, Bishop), diff(p, Rook), diff(p, Queen)

	middle = pieceValueMiddle[Pawn]*pawns + pieceValueMiddle[Knight]*knights +
		pieceValueMiddle[Bishop]*bishops + pieceValueMiddle[Rook]*rooks + pieceValueMiddle[Queen]*queens
	end = pieceValueEnd[Pawn]*pawns + pieceValueEnd[Knight]*knights +
		pieceValueEnd[Bishop]*bishops + pieceValueEnd[Rook]*rooks + pieceValueEnd[Queen]*queens

	if PopCount(p.Bishops&p.White) >= 2 {
		middle += bishopPairBonus
		end += bishopPairBonus
	}
	if PopCount(p.Bishops&p.Black) >= 2 {
		middle -= bishopPairBonus
		end -= bishopPairBonus
	}

	var wKnights, wBishops, wRooks, wQueens = PopCount(p.Knights&p.White), PopCount(p.Bishops&p.White), PopCount(p.Rooks&p.White), PopCount(p.Queens&p.White)
	var bKnights, bBishops, bRooks, bQueens = PopCount(p.Knights&p.Black), PopCount(p.Bishops&p.Black), PopCount(p.Rooks&p.Black), PopCount(p.Queens&p.Black)
	phase = minorPhase*(wKnights+wBishops+bKnights+bBishops) + rookPhase*(wRooks+bRooks) + queenPhase*(wQueens+bQueens)
	if phase > totalPhase {
		phase = totalPhase
	}
	return
}

func diff(p *Position, piece int) int {
	var bb uint64
	switch piece {
	case Pawn:
		bb = p.Pawns
	case Knight:
		bb = p.Knights
	case Bishop:
		bb = p.Bishops
	case Rook:
		bb = p.Rooks
	case Queen:
		bb = p.Queens
	}
	return PopCount(bb&p.White) - PopCount(bb&p.Black)
}

// pawnStructure penalizes doubled pawns on a file and rewards passed
// pawns scaled by how far advanced they are; both sides computed the
// same way then subtracted.
func (e *Service) pawnStructure(p *Position) (middle, end int) {
	var whiteScore = e.sidePawns(p, true)
	var blackScore = e.sidePawns(p, false)
	middle = whiteScore - blackScore
	end = (whiteScore - blackScore) * 3 / 2
	return
}

func (e *Service) sidePawns(p *Position, white bool) int {
	var pawns = p.Pawns & p.PiecesByColor(white)
	var enemyPawns = p.Pawns & p.PiecesByColor(!white)
	var score = 0
	for file := FileA; file <= FileH; file++ {
		var fileMask = FileAMask << file
		var count = PopCount(pawns & fileMask)
		if count > 1 {
			score -= doubledPawnPenalty * (count - 1)
		}
	}
	for bb := pawns; bb != 0; bb &= bb - 1 {
		var sq = FirstOne(bb)
		if isPassedPawn(sq, white, enemyPawns) {
			var rank = Rank(sq)
			var advance = rank
			if !white {
				advance = Rank8 - rank
			}
			score += passedPawnBonus * advance / 6
		}
	}
	return score
}

func isPassedPawn(sq int, white bool, enemyPawns uint64) bool {
	var file = File(sq)
	var rank = Rank(sq)
	for f := max(file-1, FileA); f <= min(file+1, FileH); f++ {
		for r := 0; r < 8; r++ {
			if white && r <= rank {
				continue
			}
			if !white && r >= rank {
				continue
			}
			if (enemyPawns & SquareMask[MakeSquare(f, r)]) != 0 {
				return false
			}
		}
	}
	return true
}

// mobility is a cheap proxy for piece activity: the count of squares a
// side's knights, bishops and rooks attack that are not occupied by own
// pieces, difference between sides.
func (e *Service) mobility(p *Position) int {
	var all = p.AllPieces()
	var white = mobilityCount(p, all, true)
	var black = mobilityCount(p, all, false)
	return mobilityWeight * (white - black)
}

func mobilityCount(p *Position, all uint64, white bool) int {
	var own = p.PiecesByColor(white)
	var count = 0
	for bb := p.Knights & own; bb != 0; bb &= bb - 1 {
		count += PopCount(KnightAttacks[FirstOne(bb)] &^ own)
	}
	for bb := p.Bishops & own; bb != 0; bb &= bb - 1 {
		count += PopCount(BishopAttacks(FirstOne(bb), all) &^ own)
	}
	for bb := p.Rooks & own; bb != 0; bb &= bb - 1 {
		count += PopCount(RookAttacks(FirstOne(bb), all) &^ own)
	}
	return count
}

// kingSafety rewards pawns still standing on the two files flanking and
// in front of a castled king; a crude shield heuristic, middlegame only.
func (e *Service) kingSafety(p *Position) int {
	return kingShield(p, true) - kingShield(p, false)
}

func kingShield(p *Position, white bool) int {
	var own = p.PiecesByColor(white)
	var kingSq = FirstOne(p.Kings & own)
	var shieldRank = Rank(kingSq) + 1
	if !white {
		shieldRank = Rank(kingSq) - 1
	}
	if shieldRank < 0 || shieldRank > 7 {
		return 0
	}
	var score = 0
	for f := max(File(kingSq)-1, FileA); f <= min(File(kingSq)+1, FileH); f++ {
		if (p.Pawns & own & SquareMask[MakeSquare(f, shieldRank)]) != 0 {
			score += kingShieldBonus
		}
	}
	return score
}

// scaleEndgame shrinks the score toward a draw when the side ahead has
// only a lone minor piece and no pawns, the classic insufficient-mating-
// material pattern the search's isDraw check does not itself catch.
func (e *Service) scaleEndgame(p *Position, score, phase int) int {
	if phase > minorPhase {
		return score
	}
	var strongerWhite = score > 0
	var strongSide = p.PiecesByColor(strongerWhite)
	if PopCount(p.Pawns&strongSide) == 0 &&
		PopCount((p.Rooks|p.Queens)&strongSide) == 0 &&
		!MoreThanOne((p.Knights|p.Bishops)&strongSide) {
		return score / 8
	}
	return score
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
