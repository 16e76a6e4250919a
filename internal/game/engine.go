// internal/game/engine.go
//
// Engine is the single owner of a match and its undo history.
// Responsibilities:
//   - Run the pure Match transitions and keep the result.
//   - Snapshot the match before every StartGame, ValidateTurn and ForceFinish
//     so Undo can put it back exactly.
//   - Encode/decode itself as JSON for session stores.
//
// Engine is not safe for concurrent use; callers serialize access.

package game

import (
	"encoding/json"

	"github.com/robalobadob/darts/apps/go-server/internal/dart"
)

// Engine wraps a Match behind a mutable handle.
type Engine struct {
	match   Match
	history []Match
	depth   int // 0 = unbounded
}

// Option configures an Engine.
type Option func(*Engine)

// WithUndoDepth keeps at most n snapshots; the oldest are dropped first.
// n <= 0 means unbounded.
func WithUndoDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.depth = n
		}
	}
}

// NewEngine returns an engine with no game started.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StartGame replaces the match with a fresh one for cfg.
func (e *Engine) StartGame(cfg Config) error {
	next, err := NewMatch(cfg)
	if err != nil {
		return err
	}
	e.push()
	e.match = next
	return nil
}

// AddDart adds base/m to the turn in progress.
func (e *Engine) AddDart(base int, m dart.Multiplier) error {
	next, err := e.match.WithDart(dart.Dart{Base: base, Multiplier: m})
	if err != nil {
		return err
	}
	e.match = next
	return nil
}

// RemoveLastDart pops the last dart of the turn; no-op on an empty turn.
func (e *Engine) RemoveLastDart() {
	e.match = e.match.WithoutLastDart()
}

// ProjectedRemaining returns the current player's score with the turn counted.
func (e *Engine) ProjectedRemaining() (int, bool) {
	return e.match.Projected()
}

// ValidateTurn applies the turn in progress and advances play.
func (e *Engine) ValidateTurn() (Outcome, error) {
	next, out, err := e.match.Validate()
	if err != nil {
		return Outcome{}, err
	}
	e.push()
	e.match = next
	return out, nil
}

// ForceFinish ends the game with the current player as winner.
func (e *Engine) ForceFinish() (Outcome, error) {
	next, out, err := e.match.Finish()
	if err != nil {
		return Outcome{}, err
	}
	e.push()
	e.match = next
	return out, nil
}

// Undo restores the match as it was before the last snapshot.
func (e *Engine) Undo() error {
	if len(e.history) == 0 {
		return ErrNothingToUndo
	}
	last := len(e.history) - 1
	e.match = e.history[last]
	e.history[last] = Match{}
	e.history = e.history[:last]
	return nil
}

// Reset clears the match and the undo history.
func (e *Engine) Reset() {
	e.match = Match{}
	e.history = nil
}

// CanUndo reports whether Undo would restore anything.
func (e *Engine) CanUndo() bool { return len(e.history) > 0 }

// UndoDepth is the number of snapshots held.
func (e *Engine) UndoDepth() int { return len(e.history) }

// Match returns a copy of the current match.
func (e *Engine) Match() Match { return e.match.Clone() }

// Log returns the turn log, newest first.
func (e *Engine) Log() []LogEntry { return e.match.Clone().Log }

func (e *Engine) push() {
	e.history = append(e.history, e.match.Clone())
	if e.depth > 0 && len(e.history) > e.depth {
		drop := len(e.history) - e.depth
		e.history = append([]Match(nil), e.history[drop:]...)
	}
}

type engineJSON struct {
	Match   Match   `json:"match"`
	History []Match `json:"history"`
	Depth   int     `json:"depth,omitempty"`
}

// MarshalJSON encodes the match together with its undo history.
func (e *Engine) MarshalJSON() ([]byte, error) {
	return json.Marshal(engineJSON{Match: e.match, History: e.history, Depth: e.depth})
}

// UnmarshalJSON restores an engine written by MarshalJSON.
func (e *Engine) UnmarshalJSON(b []byte) error {
	var v engineJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	e.match, e.history, e.depth = v.Match, v.History, v.Depth
	return nil
}
