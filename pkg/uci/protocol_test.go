package uci

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlchizhov/corebitbase/pkg/search"
)

type fakeEngine struct {
	prepared bool
	cleared  bool
	searchFn func(ctx context.Context, params search.SearchParams) search.SearchInfo
}

func (e *fakeEngine) Prepare() { e.prepared = true }
func (e *fakeEngine) Clear()   { e.cleared = true }
func (e *fakeEngine) Search(ctx context.Context, params search.SearchParams) search.SearchInfo {
	if e.searchFn != nil {
		return e.searchFn(ctx, params)
	}
	return search.SearchInfo{}
}

func TestProtocol_UnknownCommandIsError(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.Error(t, p.Handle(context.Background(), "notacommand"))
}

func TestProtocol_EmptyLineIsNoop(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.NoError(t, p.Handle(context.Background(), "   "))
}

func TestProtocol_UciCommandSucceeds(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.NoError(t, p.Handle(context.Background(), "uci"))
}

func TestProtocol_IsReadyPreparesEngine(t *testing.T) {
	var engine = &fakeEngine{}
	var p = New("Engine", "Author", "1.0", engine, nil)
	assert.NoError(t, p.Handle(context.Background(), "isready"))
	assert.True(t, engine.prepared)
}

func TestProtocol_UciNewGameClearsEngine(t *testing.T) {
	var engine = &fakeEngine{}
	var p = New("Engine", "Author", "1.0", engine, nil)
	assert.NoError(t, p.Handle(context.Background(), "ucinewgame"))
	assert.True(t, engine.cleared)
}

func TestProtocol_PonderhitIsNotImplemented(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.Error(t, p.Handle(context.Background(), "ponderhit"))
}

func TestProtocol_SetOptionUpdatesMatchingOption(t *testing.T) {
	var hash = 64
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, []Option{
		&IntOption{Name: "Hash", Min: 1, Max: 4096, Value: &hash},
	})
	assert.NoError(t, p.Handle(context.Background(), "setoption name Hash value 256"))
	assert.Equal(t, 256, hash)
}

func TestProtocol_SetOptionUnknownNameIsError(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.Error(t, p.Handle(context.Background(), "setoption name Nonexistent value 1"))
}

func TestProtocol_PositionStartposWithMoves(t *testing.T) {
	var engine = &fakeEngine{}
	var captured = make(chan search.SearchParams, 1)
	engine.searchFn = func(ctx context.Context, params search.SearchParams) search.SearchInfo {
		captured <- params
		return search.SearchInfo{}
	}
	var p = New("Engine", "Author", "1.0", engine, nil)

	require.NoError(t, p.Handle(context.Background(), "position startpos moves e2e4 e7e5"))
	require.NoError(t, p.Handle(context.Background(), "go depth 1"))

	var params = <-captured
	assert.Len(t, params.Positions, 3)
	assert.True(t, params.Positions[2].WhiteMove)
}

func TestProtocol_PositionRejectsIllegalMove(t *testing.T) {
	var p = New("Engine", "Author", "1.0", &fakeEngine{}, nil)
	assert.Error(t, p.Handle(context.Background(), "position startpos moves e2e5"))
}

func TestProtocol_PositionFenWithoutMoves(t *testing.T) {
	var engine = &fakeEngine{}
	var captured = make(chan search.SearchParams, 1)
	engine.searchFn = func(ctx context.Context, params search.SearchParams) search.SearchInfo {
		captured <- params
		return search.SearchInfo{}
	}
	var p = New("Engine", "Author", "1.0", engine, nil)

	require.NoError(t, p.Handle(context.Background(), "position fen 4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
	require.NoError(t, p.Handle(context.Background(), "go depth 1"))

	var params = <-captured
	require.Len(t, params.Positions, 1)
}

func TestProtocol_GoWhileThinkingIsRejectedExceptStop(t *testing.T) {
	var started = make(chan struct{})
	var done = make(chan struct{})
	var engine = &fakeEngine{searchFn: func(ctx context.Context, params search.SearchParams) search.SearchInfo {
		close(started)
		<-ctx.Done()
		close(done)
		return search.SearchInfo{}
	}}
	var p = New("Engine", "Author", "1.0", engine, nil)

	require.NoError(t, p.Handle(context.Background(), "go infinite"))
	<-started

	assert.Error(t, p.Handle(context.Background(), "isready"), "a second command while thinking must be rejected")
	assert.NoError(t, p.Handle(context.Background(), "stop"))
	<-done
}

func TestParseLimits_ReadsAllFields(t *testing.T) {
	var limits = parseLimits([]string{
		"wtime", "60000", "btime", "55000", "winc", "1000", "binc", "500",
		"movestogo", "30", "depth", "10", "nodes", "100000", "mate", "5",
		"movetime", "2000", "infinite",
	})
	assert.Equal(t, 60000, limits.WhiteTime)
	assert.Equal(t, 55000, limits.BlackTime)
	assert.Equal(t, 1000, limits.WhiteIncrement)
	assert.Equal(t, 500, limits.BlackIncrement)
	assert.Equal(t, 30, limits.MovesToGo)
	assert.Equal(t, 10, limits.Depth)
	assert.Equal(t, 100000, limits.Nodes)
	assert.Equal(t, 5, limits.Mate)
	assert.Equal(t, 2000, limits.MoveTime)
	assert.True(t, limits.Infinite)
}

func TestSearchInfoToUci_CentipawnScore(t *testing.T) {
	var line = searchInfoToUci(search.SearchInfo{Depth: 5, Score: search.UciScore{Centipawns: 37}})
	assert.Contains(t, line, "score cp 37")
	assert.Contains(t, line, "depth 5")
}

func TestSearchInfoToUci_MateScore(t *testing.T) {
	var line = searchInfoToUci(search.SearchInfo{Depth: 3, Score: search.UciScore{Mate: 2}})
	assert.Contains(t, line, "score mate 2")
	assert.NotContains(t, line, "score cp")
}
