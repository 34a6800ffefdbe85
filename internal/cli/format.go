package cli

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

// euro renders minor units as "1.09 €"
func euro(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2) + " €"
}

// euroAmount renders a fractional cent amount, such as a total, in euros
func euroAmount(cents float64) string {
	return decimal.NewFromFloat(cents).Shift(-2).StringFixed(2) + " €"
}

func describe(rec model.PriceRecord) string {
	return fmt.Sprintf("#%d %s (%s) %s for %s %s",
		rec.ID, rec.Article, rec.Provider, euro(rec.PriceCents), quantity.Format(rec.QuantityValue), rec.QuantityUnit)
}

func unitPriceText(rec model.PriceRecord) string {
	p, err := compare.UnitPrice(rec)
	if err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.6f ct/%s", p.PerUnit, p.Label())
}
