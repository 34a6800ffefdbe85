package compare

import (
	"fmt"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

// BestOffer is the cheapest record found for an article
type BestOffer struct {
	Record model.PriceRecord
	Index  int // position of Record in the scanned slice

	// UnitPrice is nil when no matching record had a usable quantity and the
	// offer was chosen by raw package price.
	UnitPrice   *float64
	HasQuantity bool
	Class       quantity.Class

	Matches int // records whose article matched
	Skipped int // records with a quantity in a different class than the winner

	// Current is the first matching record of the preferred provider, if any.
	// It is informational and never influences the ranking.
	Current *model.PriceRecord
}

// IsCurrent reports whether the best offer is already the preferred provider's
func (b BestOffer) IsCurrent() bool {
	return b.Current != nil && b.Current.Provider == b.Record.Provider
}

// Aggregator ranks offers across a record set
type Aggregator struct {
	eps float64
}

// NewAggregator creates an aggregator using eps for unit price equality
func NewAggregator(eps float64) *Aggregator {
	if eps < 0 {
		eps = Epsilon
	}
	return &Aggregator{eps: eps}
}

// Compare compares the unit prices of two records using the aggregator's epsilon
func (a *Aggregator) Compare(x, y model.PriceRecord) (Result, error) {
	return Records(x, y, a.eps)
}

// FindBestOffer finds the cheapest offer for article using the default epsilon
func FindBestOffer(records []model.PriceRecord, article, preferredProvider string) (BestOffer, error) {
	return NewAggregator(Epsilon).Best(records, article, preferredProvider)
}

// Best scans records whose article equals article exactly and returns the
// offer with the lowest unit price.
//
// Records with a usable quantity always outrank records without one. Among
// priced records the lower unit price wins; among unpriced records the lower
// package price wins. Ties keep the first record encountered. The class of the
// first priced record fixes the ranking class; priced records of another
// class are skipped rather than compared across units.
func (a *Aggregator) Best(records []model.PriceRecord, article, preferredProvider string) (BestOffer, error) {
	var (
		offer     BestOffer
		best      = -1
		bestPrice Price
	)

	for i, rec := range records {
		if rec.Article != article {
			continue
		}
		offer.Matches++

		if offer.Current == nil && preferredProvider != "" && rec.Provider == preferredProvider {
			current := rec
			offer.Current = &current
		}

		price, err := UnitPrice(rec)
		has := err == nil

		if has && offer.HasQuantity && price.Quantity.Class != bestPrice.Quantity.Class {
			offer.Skipped++
			continue
		}

		take := false
		switch {
		case best < 0:
			take = true
		case has && !offer.HasQuantity:
			take = true
		case has:
			take = Compare(price.PerUnit, bestPrice.PerUnit, a.eps) == First
		case !offer.HasQuantity:
			take = rec.PriceCents < records[best].PriceCents
		}
		if !take {
			continue
		}

		best = i
		offer.HasQuantity = has
		bestPrice = price
	}

	if best < 0 {
		return BestOffer{}, fmt.Errorf("%w: article %q", ErrNoMatch, article)
	}

	offer.Record = records[best]
	offer.Index = best
	offer.UnitPrice = nil
	offer.Class = quantity.Unknown
	if offer.HasQuantity {
		unitPrice := bestPrice.PerUnit
		offer.UnitPrice = &unitPrice
		offer.Class = bestPrice.Quantity.Class
	}
	return offer, nil
}

// SweepResult is the best offer for one shopping list item
type SweepResult struct {
	Item  model.ListItem
	Offer BestOffer
	Err   error
}

// Changed reports whether the recommendation differs from the item's provider
func (r SweepResult) Changed() bool {
	return r.Err == nil && r.Offer.Record.Provider != r.Item.Provider
}

// Sweep finds the best offer for every item. A failing item carries its error
// and does not stop the sweep.
func (a *Aggregator) Sweep(records []model.PriceRecord, items []model.ListItem) []SweepResult {
	results := make([]SweepResult, len(items))
	for i, item := range items {
		offer, err := a.Best(records, item.Article, item.Provider)
		results[i] = SweepResult{Item: item, Offer: offer, Err: err}
	}
	return results
}
