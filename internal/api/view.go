package api

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

// Numbers are rendered with fixed precision through json.Number so the
// payload carries exactly the digits the frontend displays.

func fixed(v float64, digits int) json.Number {
	return json.Number(fmt.Sprintf("%.*f", digits, v))
}

func quantityNumber(v float64) json.Number {
	return json.Number(quantity.Format(v))
}

// euros renders minor units as a two-decimal major unit amount
func euros(cents int) json.Number {
	return json.Number(decimal.New(int64(cents), -2).StringFixed(2))
}

type entryView struct {
	ID           int         `json:"id"`
	Article      string      `json:"artikel"`
	Provider     string      `json:"anbieter"`
	PriceCents   int         `json:"preisCent"`
	PriceEuros   json.Number `json:"preisEuro"`
	QuantityVal  json.Number `json:"mengeWert"`
	QuantityUnit string      `json:"mengeEinheit"`
}

func newEntryView(rec model.PriceRecord) entryView {
	return entryView{
		ID:           rec.ID,
		Article:      rec.Article,
		Provider:     rec.Provider,
		PriceCents:   rec.PriceCents,
		PriceEuros:   euros(rec.PriceCents),
		QuantityVal:  quantityNumber(rec.QuantityValue),
		QuantityUnit: rec.QuantityUnit,
	}
}

type offerView struct {
	Provider     string      `json:"anbieter"`
	QuantityVal  json.Number `json:"mengeWert"`
	QuantityUnit string      `json:"mengeEinheit"`
	PriceCents   int         `json:"preisCent"`
	UnitPrice    json.Number `json:"unitPrice,omitempty"`
	Unit         string      `json:"unit,omitempty"`
}

// newOfferView renders rec; the unit price is omitted when rec has no usable quantity
func newOfferView(rec model.PriceRecord) *offerView {
	v := &offerView{
		Provider:     rec.Provider,
		QuantityVal:  quantityNumber(rec.QuantityValue),
		QuantityUnit: rec.QuantityUnit,
		PriceCents:   rec.PriceCents,
	}
	if p, err := compare.UnitPrice(rec); err == nil {
		v.UnitPrice = fixed(p.PerUnit, 6)
		v.Unit = p.Label()
	}
	return v
}

type sideView struct {
	ID           int         `json:"id"`
	Article      string      `json:"artikel"`
	Provider     string      `json:"anbieter"`
	QuantityVal  json.Number `json:"mengeWert"`
	QuantityUnit string      `json:"mengeEinheit"`
	PriceCents   int         `json:"preisCent"`
	UnitPrice    json.Number `json:"unitPrice"`
	Total        json.Number `json:"total"`
}

func newSideView(rec model.PriceRecord, unitPrice, total float64) sideView {
	return sideView{
		ID:           rec.ID,
		Article:      rec.Article,
		Provider:     rec.Provider,
		QuantityVal:  quantityNumber(rec.QuantityValue),
		QuantityUnit: rec.QuantityUnit,
		PriceCents:   rec.PriceCents,
		UnitPrice:    fixed(unitPrice, 6),
		Total:        fixed(total, 6),
	}
}

type compareView struct {
	Status  string         `json:"status"`
	Unit    string         `json:"unit"`
	Amount  json.Number    `json:"amount"`
	Cheaper compare.Winner `json:"cheaper"`
	First   sideView       `json:"first"`
	Second  sideView       `json:"second"`
}

type listItemView struct {
	Index    int    `json:"index"`
	Article  string `json:"artikel"`
	Provider string `json:"anbieter"`
	Text     string `json:"text"`
}

type sweepItemView struct {
	Index           int        `json:"index"`
	Text            string     `json:"text"`
	Article         string     `json:"artikel"`
	CurrentProvider string     `json:"aktuellerAnbieter"`
	Offers          int        `json:"anbieterGefunden"` // offers for the article, 0 if none
	CurrentFound    bool       `json:"aktuellerAnbieterGefunden"`
	Match           *offerView `json:"treffer"`
	Recommendation  *offerView `json:"empfehlung"`
}
