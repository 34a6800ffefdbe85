package compare

import (
	"fmt"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

// Epsilon absorbs floating point noise from unit scaling. It is a numerical
// equality guard, not a pricing tolerance.
const Epsilon = 1e-6

// Winner is the outcome of a unit price comparison
type Winner int

const (
	Equal  Winner = iota
	First         // the first (A) operand is cheaper
	Second        // the second (B) operand is cheaper
)

// Label returns the wire label: "first", "second" or "equal"
func (w Winner) Label() string {
	switch w {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return "equal"
	}
}

func (w Winner) String() string {
	return w.Label()
}

// MarshalText encodes the winner as its label
func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.Label()), nil
}

// Compare decides which unit price is lower. Differences within eps are Equal.
func Compare(a, b, eps float64) Winner {
	switch {
	case a+eps < b:
		return First
	case b+eps < a:
		return Second
	default:
		return Equal
	}
}

// Result is the comparison of two records' unit prices
type Result struct {
	UnitPriceA float64        `json:"unitPriceA"`
	UnitPriceB float64        `json:"unitPriceB"`
	Winner     Winner         `json:"cheaper"`
	Class      quantity.Class `json:"-"`
}

// Unit returns the base unit label both prices refer to
func (r Result) Unit() string {
	return r.Class.BaseLabel()
}

// Totals returns the price of amount base units at each record's unit price
func (r Result) Totals(amount float64) (float64, float64) {
	return r.UnitPriceA * amount, r.UnitPriceB * amount
}

// Records compares the unit prices of a and b. Both must resolve to the same
// quantity class; a gram price is never compared with a per-piece price.
func Records(a, b model.PriceRecord, eps float64) (Result, error) {
	pa, err := UnitPrice(a)
	if err != nil {
		return Result{}, err
	}
	pb, err := UnitPrice(b)
	if err != nil {
		return Result{}, err
	}
	if pa.Quantity.Class != pb.Quantity.Class {
		return Result{}, fmt.Errorf("%w: %s (record %d) vs %s (record %d)",
			ErrIncompatibleUnits, pa.Quantity.Class, a.ID, pb.Quantity.Class, b.ID)
	}
	return Result{
		UnitPriceA: pa.PerUnit,
		UnitPriceB: pb.PerUnit,
		Winner:     Compare(pa.PerUnit, pb.PerUnit, eps),
		Class:      pa.Quantity.Class,
	}, nil
}
