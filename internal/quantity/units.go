package quantity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidFormat is returned when quantity text has no numeric prefix or no usable unit.
	ErrInvalidFormat = errors.New("invalid quantity format")
	// ErrUnknownUnit is returned for unit tokens missing from the unit table.
	ErrUnknownUnit = errors.New("unknown unit")
)

// Class is the canonical quantity class a unit belongs to.
// Quantities are only comparable within the same class.
type Class int

const (
	Unknown Class = iota
	Mass          // base unit: grams
	Volume        // base unit: milliliters
	Count         // base unit: pieces
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case Mass:
		return "mass"
	case Volume:
		return "volume"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

// BaseLabel returns the display label of the class base unit
func (c Class) BaseLabel() string {
	switch c {
	case Mass:
		return "g"
	case Volume:
		return "ml"
	case Count:
		return "Stück"
	default:
		return ""
	}
}

type unitDef struct {
	class Class
	scale float64
	// display is the unit written to persisted catalogs
	display string
}

// units maps folded unit tokens to their class and scale to the class base unit.
var units = map[string]unitDef{
	"g":         {Mass, 1, "g"},
	"gramm":     {Mass, 1, "g"},
	"kg":        {Mass, 1000, "kg"},
	"kilogramm": {Mass, 1000, "kg"},
	"ml":        {Volume, 1, "ml"},
	"l":         {Volume, 1000, "l"},
	"liter":     {Volume, 1000, "l"},
	"stk":       {Count, 1, "stk"},
	"st":        {Count, 1, "stk"},
	"stück":     {Count, 1, "stk"},
	"stueck":    {Count, 1, "stk"},
}

// foldToken lower-cases a unit token for table lookup. NFC first so that a
// decomposed "Stück" folds to the same key as the composed one.
func foldToken(token string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(token)))
}

// Normalize maps a raw unit token to its class and the factor that converts
// a value in that unit to the class base unit.
func Normalize(token string) (Class, float64, error) {
	def, ok := units[foldToken(token)]
	if !ok {
		return Unknown, 0, fmt.Errorf("%w: %q", ErrUnknownUnit, token)
	}
	return def.class, def.scale, nil
}

// Known reports whether token is in the unit table
func Known(token string) bool {
	_, ok := units[foldToken(token)]
	return ok
}

// Quantity is an amount expressed in the base unit of its class.
type Quantity struct {
	Amount float64 `json:"amount"`
	Class  Class   `json:"class"`
}

// New normalizes value given in unit token into a base-unit Quantity.
// The input value is never modified; the scaled amount is returned.
func New(value float64, token string) (Quantity, error) {
	class, scale, err := Normalize(token)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Amount: value * scale, Class: class}, nil
}

// Comparable reports whether q and other share a known class
func (q Quantity) Comparable(other Quantity) bool {
	return q.Class != Unknown && q.Class == other.Class
}

// Canonical rewrites a value/unit pair into the unit spelling used for
// persisted catalogs: synonyms collapse to g, kg, l or stk and milliliters
// are stored as liters when the liter value survives Format unchanged
// (500 ml -> 0.5 l, but 333.3333 ml stays ml). It is a display concern only;
// comparison math always goes through New.
func Canonical(value float64, token string) (float64, string, error) {
	key := foldToken(token)
	def, ok := units[key]
	if !ok {
		return value, token, fmt.Errorf("%w: %q", ErrUnknownUnit, token)
	}
	if key == "ml" && exactAtStoredPrecision(value/1000) {
		return value / 1000, "l", nil
	}
	return value, def.display, nil
}

// exactAtStoredPrecision reports whether v is written by Format without loss
func exactAtStoredPrecision(v float64) bool {
	back, err := strconv.ParseFloat(Format(v), 64)
	if err != nil {
		return false
	}
	return math.Abs(back-v) <= 1e-12*math.Max(1, math.Abs(v))
}
