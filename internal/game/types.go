// internal/game/types.go
//
// Core type definitions for the x01 match engine.
// Defines:
//   - Mode: 301, 501 or free (accumulate).
//   - Config: what a new game is started with.
//   - Turn, Player, Match: the match state value.
//   - Outcome, LogEntry: what a validated turn reports.

package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/darts/apps/go-server/internal/dart"
)

const (
	MinPlayers   = 2
	MaxPlayers   = 8
	DartsPerTurn = 3
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrIllegalDart   = dart.ErrIllegal
	ErrTurnFull      = fmt.Errorf("%w: turn already has %d darts", ErrIllegalDart, DartsPerTurn)
	ErrNoGame        = fmt.Errorf("%w: no game in progress", ErrIllegalDart)
	ErrEmptyTurn     = errors.New("no darts to validate")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Mode selects the starting score and the scoring direction.
type Mode string

const (
	Mode301  Mode = "301"
	Mode501  Mode = "501"
	ModeFree Mode = "free"
)

// ParseMode accepts "301", "501" or "free" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Mode301, Mode501, ModeFree:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// StartingScore is the score each player starts from (0 in free mode).
func (m Mode) StartingScore() int {
	switch m {
	case Mode301:
		return 301
	case Mode501:
		return 501
	}
	return 0
}

// Countdown reports whether players count down to zero.
func (m Mode) Countdown() bool { return m == Mode301 || m == Mode501 }

// Config is accepted by StartGame.
type Config struct {
	Mode        Mode     `json:"mode"`
	DoubleOut   bool     `json:"doubleOut"`
	PlayerCount int      `json:"playerCount"`
	Names       []string `json:"names,omitempty"` // optional; blanks fall back to "Joueur N"
}

// Validate checks the mode, the player count and the names.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.PlayerCount < MinPlayers || c.PlayerCount > MaxPlayers {
		return fmt.Errorf("%w: player count %d outside [%d,%d]", ErrInvalidConfig, c.PlayerCount, MinPlayers, MaxPlayers)
	}
	if len(c.Names) > c.PlayerCount {
		return fmt.Errorf("%w: %d names for %d players", ErrInvalidConfig, len(c.Names), c.PlayerCount)
	}
	return nil
}

// Turn holds the darts of the current visit (at most three).
type Turn []dart.Dart

// Total sums the points of the turn.
func (t Turn) Total() int { return dart.Sum(t) }

// Player is one participant and their remaining (or accumulated) score.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Match is the whole game state. Transitions return a new Match and never
// share slices with the receiver.
type Match struct {
	Mode      Mode       `json:"mode"`
	DoubleOut bool       `json:"doubleOut"`
	Players   []Player   `json:"players"`
	Current   int        `json:"current"`
	Turn      Turn       `json:"turn"`
	Started   bool       `json:"started"`
	Log       []LogEntry `json:"log"` // newest first
}

// OutcomeKind classifies a validated turn.
type OutcomeKind string

const (
	OutcomeNormal OutcomeKind = "normal"
	OutcomeBust   OutcomeKind = "bust"
	OutcomeWin    OutcomeKind = "win"
	OutcomeForced OutcomeKind = "forced"
)

// Bust reasons.
const (
	ReasonBelowZero = "score below zero"
	ReasonOneLeft   = "one remaining under double-out"
	ReasonNoDouble  = "must finish on a double"
)

// Outcome describes one validated turn.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Player     int         `json:"player"`
	Name       string      `json:"name"`
	Darts      []dart.Dart `json:"darts"`
	Total      int         `json:"total"`
	StartScore int         `json:"startScore"`
	Score      int         `json:"score"`            // resulting score; unchanged on bust
	Reason     string      `json:"reason,omitempty"` // bust reason
}

// LogEntry is one line of the human-readable turn log.
type LogEntry struct {
	Player  string      `json:"player"`
	Kind    OutcomeKind `json:"kind"`
	Summary string      `json:"summary"`
}
