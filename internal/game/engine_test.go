package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/darts/apps/go-server/internal/dart"
)

func started(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.StartGame(cfg))
	return e
}

// withScore starts a two-player game and sets the first player's score.
func withScore(t *testing.T, mode Mode, doubleOut bool, score int) *Engine {
	t.Helper()
	e := started(t, Config{Mode: mode, DoubleOut: doubleOut, PlayerCount: 2})
	e.match.Players[0].Score = score
	return e
}

func throw(t *testing.T, e *Engine, darts ...dart.Dart) {
	t.Helper()
	for _, d := range darts {
		require.NoError(t, e.AddDart(d.Base, d.Multiplier))
	}
}

var (
	t20 = dart.Dart{Base: 20, Multiplier: dart.Triple}
	d20 = dart.Dart{Base: 20, Multiplier: dart.Double}
	d16 = dart.Dart{Base: 16, Multiplier: dart.Double}
	s20 = dart.Dart{Base: 20, Multiplier: dart.Single}
	s10 = dart.Dart{Base: 10, Multiplier: dart.Single}
	s1  = dart.Dart{Base: 1, Multiplier: dart.Single}
	bul = dart.Dart{Base: 25, Multiplier: dart.Double}
)

func TestStartGameCreatesPlayers(t *testing.T) {
	for _, mode := range []Mode{Mode301, Mode501, ModeFree} {
		for _, doubleOut := range []bool{true, false} {
			for n := MinPlayers; n <= MaxPlayers; n++ {
				e := started(t, Config{Mode: mode, DoubleOut: doubleOut, PlayerCount: n})
				m := e.Match()
				require.Len(t, m.Players, n)
				for i, p := range m.Players {
					assert.Equal(t, mode.StartingScore(), p.Score)
					assert.NotEmpty(t, p.Name, "player %d", i)
				}
				assert.True(t, m.Started)
				assert.Equal(t, 0, m.Current)
				assert.Empty(t, m.Turn)
			}
		}
	}
}

func TestStartGameNames(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 3, Names: []string{"Ana", " "}})
	m := e.Match()
	assert.Equal(t, "Ana", m.Players[0].Name)
	assert.Equal(t, "Joueur 2", m.Players[1].Name)
	assert.Equal(t, "Joueur 3", m.Players[2].Name)
}

func TestStartGameInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "one player", cfg: Config{Mode: Mode501, PlayerCount: 1}},
		{name: "nine players", cfg: Config{Mode: Mode501, PlayerCount: 9}},
		{name: "unknown mode", cfg: Config{Mode: "701", PlayerCount: 2}},
		{name: "too many names", cfg: Config{Mode: Mode301, PlayerCount: 2, Names: []string{"a", "b", "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			err := e.StartGame(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.False(t, e.CanUndo(), "failed start must not snapshot")
			assert.False(t, e.Match().Started)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("FREE")
	require.NoError(t, err)
	assert.Equal(t, ModeFree, m)
	_, err = ParseMode("cricket")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAddDart(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.AddDart(20, dart.Single), ErrNoGame)
	assert.ErrorIs(t, e.AddDart(20, dart.Single), ErrIllegalDart)

	e = started(t, Config{Mode: Mode501, PlayerCount: 2})
	assert.ErrorIs(t, e.AddDart(25, dart.Triple), ErrIllegalDart)
	assert.ErrorIs(t, e.AddDart(0, dart.Double), ErrIllegalDart)
	assert.Empty(t, e.Match().Turn)

	throw(t, e, t20, dart.Miss(), bul)
	err := e.AddDart(1, dart.Single)
	assert.ErrorIs(t, err, ErrTurnFull)
	assert.ErrorIs(t, err, ErrIllegalDart)
	assert.Len(t, e.Match().Turn, 3)
	assert.Equal(t, 501, e.Match().Players[0].Score, "adding darts never touches the score")
}

func TestRemoveLastDart(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 2})
	e.RemoveLastDart()
	assert.Empty(t, e.Match().Turn)

	throw(t, e, t20, s20)
	e.RemoveLastDart()
	assert.Equal(t, Turn{t20}, e.Match().Turn)
	e.RemoveLastDart()
	assert.Nil(t, e.Match().Turn)
}

func TestProjectedRemaining(t *testing.T) {
	_, ok := NewEngine().ProjectedRemaining()
	assert.False(t, ok)

	e := started(t, Config{Mode: Mode301, PlayerCount: 2})
	throw(t, e, t20, s1)
	got, ok := e.ProjectedRemaining()
	require.True(t, ok)
	assert.Equal(t, 240, got)
	again, _ := e.ProjectedRemaining()
	assert.Equal(t, got, again)

	f := started(t, Config{Mode: ModeFree, PlayerCount: 2})
	throw(t, f, t20, s1)
	got, ok = f.ProjectedRemaining()
	require.True(t, ok)
	assert.Equal(t, 61, got)
}

func TestValidateTurnScenarios(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		doubleOut bool
		score     int
		darts     []dart.Dart
		kind      OutcomeKind
		reason    string
		score0    int
		started   bool
		current   int
	}{
		{name: "501 normal", mode: Mode501, doubleOut: true, score: 501, darts: []dart.Dart{t20, t20, d20}, kind: OutcomeNormal, score0: 341, started: true, current: 1},
		{name: "double finish", mode: Mode501, doubleOut: true, score: 40, darts: []dart.Dart{d20}, kind: OutcomeWin, score0: 0, started: false, current: 0},
		{name: "bull finish", mode: Mode301, doubleOut: true, score: 50, darts: []dart.Dart{bul}, kind: OutcomeWin, score0: 0, started: false, current: 0},
		{name: "straight out finish", mode: Mode501, doubleOut: false, score: 32, darts: []dart.Dart{d16}, kind: OutcomeWin, score0: 0, started: false, current: 0},
		{name: "straight out single finish", mode: Mode501, doubleOut: false, score: 50, darts: []dart.Dart{s20, s20, s10}, kind: OutcomeWin, score0: 0, started: false, current: 0},
		{name: "no double on finish", mode: Mode501, doubleOut: true, score: 50, darts: []dart.Dart{s20, s20, s10}, kind: OutcomeBust, reason: ReasonNoDouble, score0: 50, started: true, current: 1},
		{name: "below zero", mode: Mode301, doubleOut: false, score: 40, darts: []dart.Dart{t20}, kind: OutcomeBust, reason: ReasonBelowZero, score0: 40, started: true, current: 1},
		{name: "one left", mode: Mode301, doubleOut: true, score: 41, darts: []dart.Dart{d20}, kind: OutcomeBust, reason: ReasonOneLeft, score0: 41, started: true, current: 1},
		{name: "one left without double-out", mode: Mode301, doubleOut: false, score: 41, darts: []dart.Dart{d20}, kind: OutcomeNormal, score0: 1, started: true, current: 1},
		{name: "free mode adds", mode: ModeFree, doubleOut: true, score: 0, darts: []dart.Dart{t20, t20, t20}, kind: OutcomeNormal, score0: 180, started: true, current: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := withScore(t, tt.mode, tt.doubleOut, tt.score)
			throw(t, e, tt.darts...)

			out, err := e.ValidateTurn()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.score0, out.Score)
			assert.Equal(t, tt.score, out.StartScore)
			assert.Equal(t, dart.Sum(tt.darts), out.Total)
			assert.Equal(t, tt.darts, out.Darts)
			assert.Equal(t, "Joueur 1", out.Name)

			m := e.Match()
			assert.Equal(t, tt.score0, m.Players[0].Score)
			assert.Equal(t, tt.started, m.Started)
			assert.Equal(t, tt.current, m.Current)
			assert.Empty(t, m.Turn)
			require.Len(t, m.Log, 1)
			assert.Equal(t, out.Summary(), m.Log[0].Summary)
		})
	}
}

func TestBustLeavesScoreAndAdvances(t *testing.T) {
	for score := 2; score <= 60; score++ {
		e := withScore(t, Mode501, false, score)
		throw(t, e, t20, s1)
		out, err := e.ValidateTurn()
		require.NoError(t, err)
		assert.Equal(t, OutcomeBust, out.Kind, "score=%d", score)
		assert.Equal(t, score, e.Match().Players[0].Score)
		assert.Equal(t, 1, e.Match().Current)
	}
}

func TestZeroWithoutDoubleIsBust(t *testing.T) {
	for _, last := range []dart.Dart{s20, t20, {Base: 25, Multiplier: dart.Single}, dart.Miss()} {
		e := withScore(t, Mode501, true, 60+last.Points())
		throw(t, e, t20, last)
		out, err := e.ValidateTurn()
		require.NoError(t, err)
		assert.Equal(t, OutcomeBust, out.Kind, last.Code())
		assert.Equal(t, ReasonNoDouble, out.Reason)
	}
}

func TestWinEndsGame(t *testing.T) {
	e := withScore(t, Mode501, true, 40)
	throw(t, e, d20)
	_, err := e.ValidateTurn()
	require.NoError(t, err)

	assert.ErrorIs(t, e.AddDart(20, dart.Single), ErrNoGame)
	_, err = e.ValidateTurn()
	assert.ErrorIs(t, err, ErrNoGame)
	_, ok := e.ProjectedRemaining()
	assert.False(t, ok)
	assert.Len(t, e.Match().Players, 2, "finished match stays inspectable")
}

func TestValidateEmptyTurn(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 2})
	depth := e.UndoDepth()
	_, err := e.ValidateTurn()
	assert.ErrorIs(t, err, ErrEmptyTurn)
	assert.Equal(t, depth, e.UndoDepth())
	assert.Equal(t, 0, e.Match().Current)
}

func TestTurnRotationWraps(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 3})
	for i := 0; i < 4; i++ {
		throw(t, e, s1)
		_, err := e.ValidateTurn()
		require.NoError(t, err)
	}
	m := e.Match()
	assert.Equal(t, 1, m.Current)
	assert.Equal(t, 499, m.Players[0].Score)
	assert.Equal(t, 500, m.Players[1].Score)
	assert.Equal(t, 500, m.Players[2].Score)
	assert.Equal(t, "Joueur 1", m.Log[0].Player, "log is newest first")
	assert.Equal(t, "Joueur 3", m.Log[1].Player)
}

func TestUndoRestoresExactState(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)

	before := e.Match()
	require.NoError(t, e.StartGame(Config{Mode: Mode301, DoubleOut: true, PlayerCount: 2}))
	require.NoError(t, e.Undo())
	assert.Equal(t, before, e.Match())

	require.NoError(t, e.StartGame(Config{Mode: Mode301, DoubleOut: true, PlayerCount: 2}))
	throw(t, e, t20, t20)
	before = e.Match()
	_, err := e.ValidateTurn()
	require.NoError(t, err)
	assert.NotEqual(t, before, e.Match())
	require.NoError(t, e.Undo())
	assert.Equal(t, before, e.Match())

	// Undo goes back past the game start to the previous (empty) match.
	require.NoError(t, e.Undo())
	assert.Equal(t, Match{}, e.Match())
	assert.False(t, e.CanUndo())
}

func TestUndoAfterWin(t *testing.T) {
	e := withScore(t, Mode501, true, 40)
	throw(t, e, d20)
	before := e.Match()
	_, err := e.ValidateTurn()
	require.NoError(t, err)
	require.NoError(t, e.Undo())
	assert.Equal(t, before, e.Match())
	assert.True(t, e.Match().Started)
}

func TestUndoDepthBound(t *testing.T) {
	e := NewEngine(WithUndoDepth(2))
	require.NoError(t, e.StartGame(Config{Mode: Mode501, PlayerCount: 2}))
	for i := 0; i < 3; i++ {
		throw(t, e, s1)
		_, err := e.ValidateTurn()
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.UndoDepth())
	require.NoError(t, e.Undo())
	require.NoError(t, e.Undo())
	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)
	assert.True(t, e.Match().Started, "oldest snapshots were dropped")
}

func TestMatchReturnsCopy(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 2})
	m := e.Match()
	m.Players[0].Score = 1
	assert.Equal(t, 501, e.Match().Players[0].Score)
}

func TestResetClearsEverything(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 2})
	throw(t, e, t20)
	e.Reset()
	assert.Equal(t, Match{}, e.Match())
	assert.False(t, e.CanUndo())
}

func TestForceFinish(t *testing.T) {
	e := started(t, Config{Mode: Mode501, PlayerCount: 2})
	throw(t, e, t20)
	before := e.Match()

	out, err := e.ForceFinish()
	require.NoError(t, err)
	assert.Equal(t, OutcomeForced, out.Kind)
	m := e.Match()
	assert.False(t, m.Started)
	assert.Equal(t, 0, m.Players[0].Score)
	assert.Equal(t, "Joueur 1: forced finish", m.Log[0].Summary)

	_, err = e.ForceFinish()
	assert.ErrorIs(t, err, ErrNoGame)

	require.NoError(t, e.Undo())
	assert.Equal(t, before, e.Match())
}

func TestForceFinishFreeModeZeroesScore(t *testing.T) {
	e := started(t, Config{Mode: ModeFree, PlayerCount: 2})
	throw(t, e, t20, t20)
	_, err := e.ValidateTurn()
	require.NoError(t, err)
	throw(t, e, s20)
	_, err = e.ValidateTurn()
	require.NoError(t, err)
	require.Equal(t, 120, e.Match().Players[0].Score)

	out, err := e.ForceFinish()
	require.NoError(t, err)
	assert.Equal(t, 120, out.StartScore)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, 0, e.Match().Players[0].Score)
	assert.Empty(t, e.Match().Turn)
}

func TestLogNewestFirst(t *testing.T) {
	e := started(t, Config{Mode: Mode301, PlayerCount: 2})
	assert.Empty(t, e.Log())
	throw(t, e, t20)
	_, err := e.ValidateTurn()
	require.NoError(t, err)
	throw(t, e, s1)
	_, err = e.ValidateTurn()
	require.NoError(t, err)

	log := e.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "Joueur 2", log[0].Player)
	assert.Equal(t, "Joueur 1: T20 (60) = 60 → 241", log[1].Summary)

	log[0].Summary = "changed"
	assert.NotEqual(t, "changed", e.Log()[0].Summary, "Log returns a copy")
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{
			name: "normal",
			out:  Outcome{Kind: OutcomeNormal, Name: "Joueur 1", Darts: []dart.Dart{t20, t20, d20}, Total: 160, Score: 341},
			want: "Joueur 1: T20 (60) • T20 (60) • D20 (40) = 160 → 341",
		},
		{
			name: "bust",
			out:  Outcome{Kind: OutcomeBust, Name: "Joueur 2", Darts: []dart.Dart{s20, s20, s10}, Total: 50, Score: 50, Reason: ReasonNoDouble},
			want: "Joueur 2: S20 (20) • S20 (20) • S10 (10) = 50 → Bust (must finish on a double, score stays 50)",
		},
		{
			name: "win",
			out:  Outcome{Kind: OutcomeWin, Name: "Joueur 1", Darts: []dart.Dart{dart.Miss(), bul}, Total: 50},
			want: "Joueur 1: Miss (0) • Bull (50) = 50 → WIN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.out.Summary())
		})
	}
}

func TestHint(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, "Start a new game.", e.Match().Hint())
	require.NoError(t, e.StartGame(Config{Mode: Mode501, PlayerCount: 2}))
	assert.Equal(t, "Joueur 1 to throw: dart 1/3.", e.Match().Hint())
	throw(t, e, s1, s1, s1)
	assert.Equal(t, "Turn complete for Joueur 1. Validate the turn.", e.Match().Hint())
}

func TestEngineJSONRoundTrip(t *testing.T) {
	e := NewEngine(WithUndoDepth(5))
	require.NoError(t, e.StartGame(Config{Mode: Mode501, DoubleOut: true, PlayerCount: 2}))
	throw(t, e, t20, t20, d20)
	_, err := e.ValidateTurn()
	require.NoError(t, err)
	throw(t, e, bul)

	b, err := json.Marshal(e)
	require.NoError(t, err)

	var back Engine
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, e.Match(), back.Match())
	assert.Equal(t, e.UndoDepth(), back.UndoDepth())

	require.NoError(t, back.Undo())
	assert.Equal(t, 501, back.Match().Players[0].Score)
}
