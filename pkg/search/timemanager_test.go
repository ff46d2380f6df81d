package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jlchizhov/corebitbase/pkg/chess"
)

func TestCalcLimits_SuddenDeathSoftLessThanHard(t *testing.T) {
	var soft, hard = calcLimits(10*time.Second, 0, 0)
	assert.Greater(t, soft, time.Duration(0))
	assert.Greater(t, hard, soft)
	assert.LessOrEqual(t, hard, 10*time.Second)
}

func TestCalcLimits_MovesToGoSoftLessThanHard(t *testing.T) {
	var soft, hard = calcLimits(60*time.Second, 1*time.Second, 30)
	assert.Greater(t, soft, time.Duration(0))
	assert.Greater(t, hard, soft)
	assert.LessOrEqual(t, hard, 60*time.Second)
}

func TestCalcLimits_ClampsToMinimumWhenTimeIsTiny(t *testing.T) {
	var soft, hard = calcLimits(50*time.Millisecond, 0, 0)
	assert.Equal(t, time.Millisecond, soft)
	assert.Equal(t, time.Millisecond, hard)
}

func TestTimeManager_DepthLimitStopsAtTargetDepth(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Depth: 3}, &p)
	defer tm.Close()

	assert.False(t, tm.IsDone())
	tm.OnIterationComplete(2, 0)
	assert.False(t, tm.IsDone())
	tm.OnIterationComplete(3, 0)
	assert.True(t, tm.IsDone())
}

func TestTimeManager_MateScoreStopsEarly(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Depth: 30}, &p)
	defer tm.Close()

	tm.OnIterationComplete(10, winIn(0))
	assert.True(t, tm.IsDone())
}

func TestTimeManager_NodeLimitCancels(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Nodes: 1000}, &p)
	defer tm.Close()

	assert.False(t, tm.IsDone())
	tm.OnNodesChanged(1000)
	assert.True(t, tm.IsDone())
}

func TestTimeManager_InfiniteIgnoresDepthAndMate(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	require.NoError(t, err)

	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Depth: 3, Infinite: true}, &p)
	defer tm.Close()

	tm.OnIterationComplete(5, winIn(0))
	assert.False(t, tm.IsDone())
}
