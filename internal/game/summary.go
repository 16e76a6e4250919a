// internal/game/summary.go
//
// Turn-log rendering for validated turns.
// Format:
//   - normal: "{name}: {label} • {label} = {total} → {score}"
//   - bust:   "... → Bust ({reason}, score stays {score})"
//   - win:    "... → WIN"
//   - forced: "{name}: forced finish"

package game

import (
	"strconv"
	"strings"
)

// Summary renders the turn-log line for an outcome, e.g.
// "Joueur 1: T20 (60) • T20 (60) • D20 (40) = 160 → 341".
func (o Outcome) Summary() string {
	if o.Kind == OutcomeForced {
		return o.Name + ": forced finish"
	}
	labels := make([]string, len(o.Darts))
	for i, d := range o.Darts {
		labels[i] = d.Label()
	}
	line := o.Name + ": " + strings.Join(labels, " • ") + " = " + strconv.Itoa(o.Total) + " → "
	switch o.Kind {
	case OutcomeBust:
		return line + "Bust (" + o.Reason + ", score stays " + strconv.Itoa(o.Score) + ")"
	case OutcomeWin:
		return line + "WIN"
	}
	return line + strconv.Itoa(o.Score)
}
