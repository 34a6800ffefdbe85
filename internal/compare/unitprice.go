package compare

import (
	"errors"
	"fmt"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

var (
	// ErrNoQuantity is returned when a record has no positive, normalizable quantity.
	ErrNoQuantity = errors.New("no usable quantity")
	// ErrIncompatibleUnits is returned when comparing quantities of different classes.
	ErrIncompatibleUnits = errors.New("incompatible units")
	// ErrNoMatch is returned when no record matches the requested article.
	ErrNoMatch = errors.New("no matching record")
)

// Price is a unit price in minor currency units per base unit of Quantity.Class
type Price struct {
	PerUnit  float64           `json:"unitPrice"`
	Quantity quantity.Quantity `json:"quantity"`
}

// Label returns the base unit label the price refers to ("g", "ml", "Stück")
func (p Price) Label() string {
	return p.Quantity.Class.BaseLabel()
}

// UnitPrice computes the price per base unit for a structured record
func UnitPrice(rec model.PriceRecord) (Price, error) {
	if !(rec.QuantityValue > 0) {
		return Price{}, fmt.Errorf("%w: record %d has quantity %s", ErrNoQuantity, rec.ID, quantity.Format(rec.QuantityValue))
	}
	q, err := quantity.New(rec.QuantityValue, rec.QuantityUnit)
	if err != nil {
		return Price{}, fmt.Errorf("%w: record %d: %w", ErrNoQuantity, rec.ID, err)
	}
	return of(rec.PriceCents, q)
}

// UnitPriceText computes the price per base unit for a package described by
// free-form quantity text, as stored in legacy five-column catalogs.
func UnitPriceText(priceCents int, text string) (Price, error) {
	q, err := quantity.ParseText(text)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %w", ErrNoQuantity, err)
	}
	return of(priceCents, q)
}

func of(priceCents int, q quantity.Quantity) (Price, error) {
	if !(q.Amount > 0) {
		return Price{}, fmt.Errorf("%w: amount %s", ErrNoQuantity, quantity.Format(q.Amount))
	}
	return Price{PerUnit: float64(priceCents) / q.Amount, Quantity: q}, nil
}
