package search

import "math"

// Options toggles every pruning and extension technique independently so
// that S1-style regression positions can bisect a bad line to a single
// switch. All default on; Hash is in megabytes.
type Options struct {
	Hash              int
	ProgressMinNodes  int
	AspirationWindows bool
	ReverseFutility   bool
	NullMovePruning   bool
	Probcut           bool
	SingularExt       bool
	CheckExt          bool
	Lmp               bool
	Futility          bool
	See               bool
	reductions        [64][64]int
}

func NewOptions() Options {
	var result = Options{
		Hash:              64,
		ProgressMinNodes:  1_000_000,
		AspirationWindows: true,
		ReverseFutility:   true,
		NullMovePruning:   true,
		Probcut:           true,
		SingularExt:       true,
		CheckExt:          true,
		Lmp:               true,
		Futility:          true,
		See:               true,
	}
	result.InitLmr(LmrMult)
	return result
}

func (o *Options) Lmr(d, m int) int {
	return o.reductions[min(d, 63)][min(m, 63)]
}

func (o *Options) InitLmr(f func(d, m float64) float64) {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			o.reductions[d][m] = int(f(float64(d), float64(m)))
		}
	}
}

func LmrMult(d, m float64) float64 {
	return lirp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}

func lirp(x, x1, x2, y1, y2 float64) float64 {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
