package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/model"
)

// memStore is an in-memory catalog.Store
type memStore struct {
	catalogs map[string][]model.PriceRecord
}

func (m *memStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.catalogs))
	for name := range m.catalogs {
		names = append(names, name)
	}
	return names, nil
}

func (m *memStore) Load(ctx context.Context, name string) (*catalog.Catalog, error) {
	records, ok := m.catalogs[name]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Catalog{Name: name, Records: records}, nil
}

func (m *memStore) Save(ctx context.Context, c *catalog.Catalog) error {
	m.catalogs[c.Name] = c.Records
	return nil
}

func (m *memStore) Create(ctx context.Context, name string) error {
	m.catalogs[name] = nil
	return nil
}

func TestBatchSweeper_Run(t *testing.T) {
	store := &memStore{catalogs: map[string][]model.PriceRecord{
		"aldi.csv": {
			{ID: 1, Article: "Milch", Provider: "Aldi", PriceCents: 109, QuantityValue: 1, QuantityUnit: "l"},
		},
		"mix.csv": {
			{ID: 1, Article: "Milch", Provider: "Aldi", PriceCents: 109, QuantityValue: 1, QuantityUnit: "l"},
			{ID: 2, Article: "Milch", Provider: "Lidl", PriceCents: 99, QuantityValue: 1, QuantityUnit: "l"},
			{ID: 3, Article: "Brot", Provider: "Rewe", PriceCents: 249, QuantityValue: 750, QuantityUnit: "g"},
		},
	}}
	items := []model.ListItem{{Article: "Milch", Provider: "Aldi"}, {Article: "Brot"}}

	sweeper := NewBatchSweeper(store, compare.NewAggregator(compare.Epsilon), 2, nil)
	outcomes := sweeper.Run(context.Background(), []string{"mix.csv", "missing.csv", "aldi.csv"}, items)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for i, name := range []string{"mix.csv", "missing.csv", "aldi.csv"} {
		if outcomes[i].Catalog != name {
			t.Errorf("outcome %d: expected %s, got %s", i, name, outcomes[i].Catalog)
		}
	}

	mix := outcomes[0]
	if mix.GetError() != nil {
		t.Fatalf("unexpected error: %v", mix.GetError())
	}
	if mix.Found() != 2 {
		t.Errorf("expected 2 found items, got %d", mix.Found())
	}
	if got := mix.Results[0].Offer.Record.Provider; got != "Lidl" {
		t.Errorf("expected Lidl for Milch, got %s", got)
	}
	if !mix.Results[0].Changed() {
		t.Error("expected Milch recommendation to differ from Aldi")
	}

	if !errors.Is(outcomes[1].GetError(), catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", outcomes[1].GetError())
	}

	aldi := outcomes[2]
	if aldi.Found() != 1 || !errors.Is(aldi.Results[1].Err, compare.ErrNoMatch) {
		t.Errorf("expected only Milch in aldi.csv, got %+v", aldi.Results)
	}
}

func TestBatchSweeper_Empty(t *testing.T) {
	sweeper := NewBatchSweeper(&memStore{}, compare.NewAggregator(compare.Epsilon), 2, nil)
	if out := sweeper.Run(context.Background(), nil, nil); len(out) != 0 {
		t.Errorf("expected no outcomes, got %d", len(out))
	}
}

func TestBatchSweeper_Cancelled(t *testing.T) {
	store := &memStore{catalogs: map[string][]model.PriceRecord{"a.csv": nil, "b.csv": nil}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := NewBatchSweeper(store, compare.NewAggregator(compare.Epsilon), 1, nil)
	outcomes := sweeper.Run(ctx, []string{"a.csv", "b.csv"}, []model.ListItem{{Article: "x"}})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, out := range outcomes {
		if !errors.Is(out.GetError(), context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", out.Catalog, out.GetError())
		}
	}
}
