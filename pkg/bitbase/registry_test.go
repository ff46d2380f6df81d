package bitbase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func TestCanonicalSignature_AlreadyCanonical(t *testing.T) {
	var sig, flip = canonicalSignature("KQKR")
	assert.Equal(t, Signature("KQKR"), sig)
	assert.False(t, flip)
}

func TestCanonicalSignature_SwapsWhenBlackIsStronger(t *testing.T) {
	var sig, flip = canonicalSignature("KRKQR")
	assert.Equal(t, Signature("KQRKR"), sig)
	assert.True(t, flip)
}

func TestMirrorColors_SwapsSidesAndTurn(t *testing.T) {
	var p, err = NewPositionFromFEN("4k3/8/8/4P3/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var m = mirrorColors(p)
	// colors swap and ranks flip: e8 -> e1, e1 -> e8, pawn e5 -> e4.
	assert.Equal(t, SquareMask[SquareE1], m.White)
	assert.Equal(t, SquareMask[SquareE8]|SquareMask[SquareE4], m.Black)
	assert.Equal(t, SquareMask[SquareE4], m.Pawns)
	assert.NotEqual(t, p.WhiteMove, m.WhiteMove)
}

func TestRegistry_AttachMissingFileErrors(t *testing.T) {
	var reg = NewRegistry(t.TempDir(), 4)
	defer reg.Close()
	assert.Error(t, reg.Attach("KQK"))
}

func TestRegistry_AttachAndProbe(t *testing.T) {
	var values, stats, err = Generate(context.Background(), "KQK", GenerateOptions{Cores: 2})
	require.NoError(t, err)
	require.Greater(t, stats.Wins, uint64(0))

	var pl = NewPieceList("KQK")
	var winIndex = -1
	for i, v := range values {
		if v == ValueWin {
			winIndex = i
			break
		}
	}
	require.NotEqual(t, -1, winIndex, "expected at least one won index")

	var access, ok = IndexToPosition(pl, uint64(winIndex))
	require.True(t, ok)
	var pos, built = pl.ToPosition(access)
	require.True(t, built)

	var dir = t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "KQK.btb"), "KQK", values, 4096, CompressionS2))

	var reg = NewRegistry(dir, 16)
	defer reg.Close()
	require.NoError(t, reg.Attach("KQK"))

	var score, probed = reg.Probe(&pos)
	require.True(t, probed)
	assert.Equal(t, bitbaseWinValue, score)

	// attaching twice is a no-op, not a reopen error.
	assert.NoError(t, reg.Attach("KQK"))
}

func TestRegistry_ProbeAutoAttachesOnFirstLookup(t *testing.T) {
	var values, stats, err = Generate(context.Background(), "KQK", GenerateOptions{Cores: 2})
	require.NoError(t, err)
	require.Greater(t, stats.Wins, uint64(0))

	var pl = NewPieceList("KQK")
	var winIndex = -1
	for i, v := range values {
		if v == ValueWin {
			winIndex = i
			break
		}
	}
	require.NotEqual(t, -1, winIndex)

	var access, ok = IndexToPosition(pl, uint64(winIndex))
	require.True(t, ok)
	var pos, built = pl.ToPosition(access)
	require.True(t, built)

	var dir = t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "KQK.btb"), "KQK", values, 4096, CompressionNone))

	var reg = NewRegistry(dir, 16)
	defer reg.Close()

	// no explicit Attach: Probe must open the file itself.
	var score, probed = reg.Probe(&pos)
	require.True(t, probed)
	assert.Equal(t, bitbaseWinValue, score)
}

func TestRegistry_AttachEmbeddedAndProbe(t *testing.T) {
	var values, stats, err = Generate(context.Background(), "KQK", GenerateOptions{Cores: 2})
	require.NoError(t, err)
	require.Greater(t, stats.Wins, uint64(0))

	var pl = NewPieceList("KQK")
	var winIndex = -1
	for i, v := range values {
		if v == ValueWin {
			winIndex = i
			break
		}
	}
	require.NotEqual(t, -1, winIndex)

	var access, ok = IndexToPosition(pl, uint64(winIndex))
	require.True(t, ok)
	var pos, built = pl.ToPosition(access)
	require.True(t, built)

	var path = filepath.Join(t.TempDir(), "KQK.btb")
	require.NoError(t, WriteFile(path, "KQK", values, 4096, CompressionS2))
	var data, readErr = os.ReadFile(path)
	require.NoError(t, readErr)

	var reg = NewRegistry("", 16)
	defer reg.Close()
	require.NoError(t, reg.AttachEmbedded("KQK", data))

	var score, probed = reg.Probe(&pos)
	require.True(t, probed)
	assert.Equal(t, bitbaseWinValue, score)

	// attaching twice is a no-op, not a reload.
	assert.NoError(t, reg.AttachEmbedded("KQK", data))
}

func TestRegistry_ProbeUnknownSignatureFails(t *testing.T) {
	var reg = NewRegistry(t.TempDir(), 4)
	defer reg.Close()

	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	var _, probed = reg.Probe(&p)
	assert.False(t, probed)
}
