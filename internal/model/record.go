package model

// PriceRecord is one catalog line: what a provider charges for a package of an article.
type PriceRecord struct {
	ID            int     `json:"id" yaml:"id"`
	Article       string  `json:"artikel" yaml:"article"`
	Provider      string  `json:"anbieter" yaml:"provider"`
	PriceCents    int     `json:"preisCent" yaml:"price_cents"` // minor currency units
	QuantityValue float64 `json:"mengeWert" yaml:"quantity_value"`
	QuantityUnit  string  `json:"mengeEinheit" yaml:"quantity_unit"`
}

// ListItem is one shopping list entry: an article and the provider it is
// currently planned to be bought from (empty if none chosen yet).
type ListItem struct {
	Article  string `json:"artikel"`
	Provider string `json:"anbieter"`
}

// NextID returns the id for a record appended to records (max id + 1)
func NextID(records []PriceRecord) int {
	maxID := 0
	for _, r := range records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// FindByID returns the index of the record with id, or -1
func FindByID(records []PriceRecord, id int) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
