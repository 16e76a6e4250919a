// internal/game/match.go
//
// Pure transitions over the Match value.
// Each transition takes a Match and returns a fresh one; the receiver is left
// untouched so callers can keep it as an undo snapshot.
//
// Turn validation (countdown modes):
//   - newScore < 0                              → bust
//   - double-out and newScore == 1              → bust
//   - newScore == 0, double-out, last not double → bust
//   - newScore == 0                             → win (game ends)
//   - otherwise                                 → score applied
// Free mode always adds the turn total.
// After bust or normal the turn passes to the next player.

package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robalobadob/darts/apps/go-server/internal/dart"
)

// NewMatch builds a started match for cfg.
func NewMatch(cfg Config) (Match, error) {
	if err := cfg.Validate(); err != nil {
		return Match{}, err
	}
	mode, _ := ParseMode(string(cfg.Mode))
	players := make([]Player, cfg.PlayerCount)
	for i := range players {
		name := ""
		if i < len(cfg.Names) {
			name = strings.TrimSpace(cfg.Names[i])
		}
		if name == "" {
			name = fmt.Sprintf("Joueur %d", i+1)
		}
		players[i] = Player{Name: name, Score: mode.StartingScore()}
	}
	return Match{
		Mode:      mode,
		DoubleOut: cfg.DoubleOut,
		Players:   players,
		Started:   true,
	}, nil
}

// Clone returns a deep copy. Nil slices stay nil.
func (m Match) Clone() Match {
	m.Players = slices.Clone(m.Players)
	m.Turn = slices.Clone(m.Turn)
	m.Log = slices.Clone(m.Log)
	return m
}

// CurrentPlayer returns the player whose turn it is.
func (m Match) CurrentPlayer() (Player, bool) {
	if m.Current < 0 || m.Current >= len(m.Players) {
		return Player{}, false
	}
	return m.Players[m.Current], true
}

// WithDart appends d to the current turn.
func (m Match) WithDart(d dart.Dart) (Match, error) {
	if !m.Started {
		return m, ErrNoGame
	}
	if len(m.Turn) >= DartsPerTurn {
		return m, ErrTurnFull
	}
	d, err := dart.New(d.Base, d.Multiplier)
	if err != nil {
		return m, err
	}
	next := m.Clone()
	next.Turn = append(next.Turn, d)
	return next, nil
}

// WithoutLastDart drops the last dart of the current turn, if any.
func (m Match) WithoutLastDart() Match {
	if len(m.Turn) == 0 {
		return m
	}
	next := m.Clone()
	next.Turn = next.Turn[:len(next.Turn)-1]
	if len(next.Turn) == 0 {
		next.Turn = nil
	}
	return next
}

// Projected is the current player's score once the turn in progress counts.
// It is false when no game is running.
func (m Match) Projected() (int, bool) {
	if !m.Started {
		return 0, false
	}
	p, ok := m.CurrentPlayer()
	if !ok {
		return 0, false
	}
	if m.Mode.Countdown() {
		return p.Score - m.Turn.Total(), true
	}
	return p.Score + m.Turn.Total(), true
}

// Validate applies the turn in progress to the current player.
func (m Match) Validate() (Match, Outcome, error) {
	if !m.Started {
		return m, Outcome{}, ErrNoGame
	}
	if len(m.Turn) == 0 {
		return m, Outcome{}, ErrEmptyTurn
	}

	next := m.Clone()
	p := &next.Players[next.Current]
	total := next.Turn.Total()
	out := Outcome{
		Kind:       OutcomeNormal,
		Player:     next.Current,
		Name:       p.Name,
		Darts:      slices.Clone([]dart.Dart(next.Turn)),
		Total:      total,
		StartScore: p.Score,
	}

	if next.Mode.Countdown() {
		newScore := p.Score - total
		last := next.Turn[len(next.Turn)-1]
		switch {
		case newScore < 0:
			out.Kind, out.Reason = OutcomeBust, ReasonBelowZero
		case next.DoubleOut && newScore == 1:
			out.Kind, out.Reason = OutcomeBust, ReasonOneLeft
		case next.DoubleOut && newScore == 0 && !last.IsDouble():
			out.Kind, out.Reason = OutcomeBust, ReasonNoDouble
		case newScore == 0:
			out.Kind = OutcomeWin
			p.Score = 0
			next.Started = false
		default:
			p.Score = newScore
		}
	} else {
		p.Score += total
	}
	out.Score = p.Score

	next.Log = prependLog(next.Log, LogEntry{Player: out.Name, Kind: out.Kind, Summary: out.Summary()})
	next.Turn = nil
	if next.Started {
		next.Current = (next.Current + 1) % len(next.Players)
	}
	return next, out, nil
}

// Finish ends the game in favour of the current player without validating
// a turn. The turn in progress is discarded and the player's score is set to
// 0 in every mode.
func (m Match) Finish() (Match, Outcome, error) {
	if !m.Started {
		return m, Outcome{}, ErrNoGame
	}
	next := m.Clone()
	p := &next.Players[next.Current]
	out := Outcome{
		Kind:       OutcomeForced,
		Player:     next.Current,
		Name:       p.Name,
		StartScore: p.Score,
	}
	p.Score = 0
	out.Score = 0
	next.Started = false
	next.Turn = nil
	next.Log = prependLog(next.Log, LogEntry{Player: out.Name, Kind: out.Kind, Summary: out.Summary()})
	return next, out, nil
}

// Hint tells the scorer what to do next.
func (m Match) Hint() string {
	if !m.Started {
		if len(m.Players) > 0 {
			return "Game over. Start a new game."
		}
		return "Start a new game."
	}
	p, _ := m.CurrentPlayer()
	if len(m.Turn) >= DartsPerTurn {
		return fmt.Sprintf("Turn complete for %s. Validate the turn.", p.Name)
	}
	return fmt.Sprintf("%s to throw: dart %d/%d.", p.Name, len(m.Turn)+1, DartsPerTurn)
}

func prependLog(log []LogEntry, e LogEntry) []LogEntry {
	return append([]LogEntry{e}, log...)
}
