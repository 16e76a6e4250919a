// internal/dart/dart.go
//
// Value types for a single thrown dart.
// Defines:
//   - Multiplier: S/D/T ring factor.
//   - Dart: base segment + multiplier, with derived points and display labels.
//
// A dart is legal when its base is 0 (miss, single only), 1–20, or 25
// (outer bull single / bull double, never triple).

package dart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Multiplier is the ring factor of a dart.
type Multiplier int

const (
	Single Multiplier = 1
	Double Multiplier = 2
	Triple Multiplier = 3
)

const (
	MissBase = 0
	BullBase = 25
)

// ErrIllegal is returned for base/multiplier pairs that cannot be thrown.
var ErrIllegal = errors.New("illegal dart")

// Letter returns "S", "D" or "T".
func (m Multiplier) Letter() string {
	switch m {
	case Single:
		return "S"
	case Double:
		return "D"
	case Triple:
		return "T"
	}
	return "?"
}

// Valid reports whether m is one of Single, Double, Triple.
func (m Multiplier) Valid() bool { return m >= Single && m <= Triple }

// ParseMultiplier accepts the letters S/D/T (any case) or the factors 1/2/3.
func ParseMultiplier(s string) (Multiplier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "1":
		return Single, nil
	case "D", "2":
		return Double, nil
	case "T", "3":
		return Triple, nil
	}
	return 0, fmt.Errorf("%w: unknown multiplier %q", ErrIllegal, s)
}

// MarshalText encodes the multiplier as its letter.
func (m Multiplier) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: multiplier %d", ErrIllegal, int(m))
	}
	return []byte(m.Letter()), nil
}

// UnmarshalText decodes a letter or factor.
func (m *Multiplier) UnmarshalText(b []byte) error {
	v, err := ParseMultiplier(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Dart is one thrown dart. Points are always derived from Base and Multiplier.
type Dart struct {
	Base       int        `json:"base"`
	Multiplier Multiplier `json:"multiplier"`
}

// New returns the dart for base/m or ErrIllegal.
func New(base int, m Multiplier) (Dart, error) {
	d := Dart{Base: base, Multiplier: m}
	if !d.Valid() {
		return Dart{}, fmt.Errorf("%w: %s%d", ErrIllegal, m.Letter(), base)
	}
	return d, nil
}

// Miss is a dart outside the scoring area.
func Miss() Dart { return Dart{Base: MissBase, Multiplier: Single} }

// Valid reports whether the dart can be thrown on a standard board.
func (d Dart) Valid() bool {
	if !d.Multiplier.Valid() {
		return false
	}
	switch {
	case d.Base == MissBase:
		return d.Multiplier == Single
	case d.Base >= 1 && d.Base <= 20:
		return true
	case d.Base == BullBase:
		return d.Multiplier != Triple
	}
	return false
}

// Points is base × multiplier; a miss scores 0 whatever its multiplier.
func (d Dart) Points() int {
	if d.Base == MissBase {
		return 0
	}
	return d.Base * int(d.Multiplier)
}

// IsDouble reports whether the dart finishes a double-out leg (bull included).
func (d Dart) IsDouble() bool { return d.Base != MissBase && d.Multiplier == Double }

// IsMiss reports whether the dart scored nothing.
func (d Dart) IsMiss() bool { return d.Base == MissBase }

// Label is the turn-log form: "Miss (0)", "Bull (50)", "25", "T20 (60)".
func (d Dart) Label() string {
	switch {
	case d.Base == MissBase:
		return "Miss (0)"
	case d.Base == BullBase && d.Multiplier == Double:
		return "Bull (50)"
	case d.Base == BullBase && d.Multiplier == Single:
		return "25"
	}
	return d.Code() + " (" + strconv.Itoa(d.Points()) + ")"
}

// Code is the short form used in checkout suggestions: "Miss", "Bull", "25", "T20".
func (d Dart) Code() string {
	switch {
	case d.Base == MissBase:
		return "Miss"
	case d.Base == BullBase && d.Multiplier == Double:
		return "Bull"
	case d.Base == BullBase && d.Multiplier == Single:
		return "25"
	}
	return d.Multiplier.Letter() + strconv.Itoa(d.Base)
}

func (d Dart) String() string { return d.Code() }

// Sum adds up the points of ds.
func Sum(ds []Dart) int {
	total := 0
	for _, d := range ds {
		total += d.Points()
	}
	return total
}
