package compare

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
)

func rec(id int, article, provider string, cents int, value float64, unit string) model.PriceRecord {
	return model.PriceRecord{
		ID:            id,
		Article:       article,
		Provider:      provider,
		PriceCents:    cents,
		QuantityValue: value,
		QuantityUnit:  unit,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestUnitPrice(t *testing.T) {
	p, err := UnitPrice(rec(1, "Mehl", "A", 250, 500, "g"))
	if err != nil {
		t.Fatalf("UnitPrice failed: %v", err)
	}
	if !almostEqual(p.PerUnit, 0.5) {
		t.Errorf("PerUnit = %v, want 0.5", p.PerUnit)
	}
	if p.Label() != "g" {
		t.Errorf("Label = %q, want g", p.Label())
	}

	p, err = UnitPrice(rec(2, "Mehl", "B", 100, 1, "kg"))
	if err != nil {
		t.Fatalf("UnitPrice failed: %v", err)
	}
	if p.Quantity.Amount != 1000 {
		t.Errorf("Amount = %v, want 1000", p.Quantity.Amount)
	}
	if !almostEqual(p.PerUnit, 0.1) {
		t.Errorf("PerUnit = %v, want 0.1", p.PerUnit)
	}
}

func TestUnitPrice_NoQuantity(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  string
	}{
		{"zero", 0, "g"},
		{"negative", -1, "g"},
		{"nan", math.NaN(), "g"},
		{"unknown unit", 1, "dose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnitPrice(rec(1, "x", "y", 100, tt.value, tt.unit))
			if !errors.Is(err, ErrNoQuantity) {
				t.Errorf("expected ErrNoQuantity, got %v", err)
			}
		})
	}

	_, err := UnitPrice(rec(1, "x", "y", 100, 1, "dose"))
	if !errors.Is(err, quantity.ErrUnknownUnit) {
		t.Errorf("expected wrapped ErrUnknownUnit, got %v", err)
	}
}

func TestUnitPriceText(t *testing.T) {
	p, err := UnitPriceText(300, "1,5 l")
	if err != nil {
		t.Fatalf("UnitPriceText failed: %v", err)
	}
	if !almostEqual(p.PerUnit, 0.2) || p.Quantity.Class != quantity.Volume {
		t.Errorf("got %+v, want 0.2 ct/ml", p)
	}

	if _, err := UnitPriceText(300, "0 l"); !errors.Is(err, ErrNoQuantity) {
		t.Errorf("expected ErrNoQuantity for zero amount, got %v", err)
	}
	if _, err := UnitPriceText(300, "viel"); !errors.Is(err, quantity.ErrInvalidFormat) {
		t.Errorf("expected wrapped ErrInvalidFormat, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b float64
		want Winner
	}{
		{0.1, 0.5, First},
		{0.5, 0.1, Second},
		{0.5, 0.5, Equal},
		{0.5, 0.5 + 1e-7, Equal},
		{0.5, 0.5 + 2e-6, First},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b, Epsilon); got != tt.want {
			t.Errorf("Compare(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompare_Symmetry(t *testing.T) {
	values := []float64{0, 1e-9, 0.1, 0.1000001, 0.5, 1, 3.3333333, 1e6, math.Inf(1), math.NaN()}
	for _, a := range values {
		if got := Compare(a, a, Epsilon); got != Equal {
			t.Errorf("Compare(%v, %v) = %v, want equal", a, a, got)
		}
		for _, b := range values {
			ab := Compare(a, b, Epsilon)
			ba := Compare(b, a, Epsilon)
			if (ab == First) != (ba == Second) {
				t.Errorf("asymmetric: Compare(%v,%v)=%v, Compare(%v,%v)=%v", a, b, ab, b, a, ba)
			}
			if (ab == Equal) != (ba == Equal) {
				t.Errorf("equality not symmetric for %v, %v", a, b)
			}
		}
	}
}

func TestWinner_Labels(t *testing.T) {
	if First.Label() != "first" || Second.Label() != "second" || Equal.Label() != "equal" {
		t.Error("unexpected winner labels")
	}

	data, err := json.Marshal(struct {
		Cheaper Winner `json:"cheaper"`
	}{Second})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"cheaper":"second"}` {
		t.Errorf("json = %s", data)
	}
}

func TestRecords_KilogramBeatsGrams(t *testing.T) {
	a := rec(1, "Mehl", "A", 250, 500, "g")
	b := rec(2, "Mehl", "B", 100, 1, "kg")

	res, err := Records(a, b, Epsilon)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if res.Winner != Second {
		t.Errorf("winner = %v, want second", res.Winner)
	}
	if !almostEqual(res.UnitPriceA, 0.5) || !almostEqual(res.UnitPriceB, 0.1) {
		t.Errorf("unit prices = %v / %v", res.UnitPriceA, res.UnitPriceB)
	}
	if res.Unit() != "g" {
		t.Errorf("unit = %q, want g", res.Unit())
	}

	ta, tb := res.Totals(2000)
	if !almostEqual(ta, 1000) || !almostEqual(tb, 200) {
		t.Errorf("totals = %v / %v", ta, tb)
	}
}

func TestRecords_IncompatibleUnits(t *testing.T) {
	pieces := rec(1, "Eier", "A", 300, 3, "Stk")
	grams := rec(2, "Eier", "B", 300, 500, "g")

	if _, err := Records(pieces, grams, Epsilon); !errors.Is(err, ErrIncompatibleUnits) {
		t.Errorf("expected ErrIncompatibleUnits, got %v", err)
	}
	if _, err := Records(grams, pieces, Epsilon); !errors.Is(err, ErrIncompatibleUnits) {
		t.Errorf("expected ErrIncompatibleUnits in reverse order, got %v", err)
	}
}

func TestRecords_MilliliterAgainstLiter(t *testing.T) {
	res, err := Records(rec(1, "Milch", "A", 119, 1, "l"), rec(2, "Milch", "B", 60, 500, "ml"), Epsilon)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if res.Winner != First {
		t.Errorf("winner = %v, want first", res.Winner)
	}
}

func TestRecords_NoQuantity(t *testing.T) {
	if _, err := Records(rec(1, "x", "a", 1, 0, "g"), rec(2, "x", "b", 1, 1, "g"), Epsilon); !errors.Is(err, ErrNoQuantity) {
		t.Errorf("expected ErrNoQuantity, got %v", err)
	}
}

func TestFindBestOffer_LowestUnitPrice(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Mehl", "Aldi", 250, 500, "g"),
		rec(2, "Butter", "Aldi", 199, 250, "g"),
		rec(3, "Mehl", "Lidl", 100, 1, "kg"),
		rec(4, "Mehl", "Rewe", 90, 500, "g"),
	}

	offer, err := FindBestOffer(records, "Mehl", "")
	if err != nil {
		t.Fatalf("FindBestOffer failed: %v", err)
	}
	if offer.Record.ID != 3 {
		t.Errorf("best = %d, want 3", offer.Record.ID)
	}
	if offer.Index != 2 {
		t.Errorf("index = %d, want 2", offer.Index)
	}
	if !offer.HasQuantity || offer.UnitPrice == nil || !almostEqual(*offer.UnitPrice, 0.1) {
		t.Errorf("unexpected unit price: %+v", offer)
	}
	if offer.Matches != 3 {
		t.Errorf("matches = %d, want 3", offer.Matches)
	}
	if offer.Class != quantity.Mass {
		t.Errorf("class = %v, want mass", offer.Class)
	}
}

func TestFindBestOffer_TieKeepsFirst(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Milch", "A", 100, 1, "l"),
		rec(2, "Milch", "B", 50, 500, "ml"),
	}
	offer, err := FindBestOffer(records, "Milch", "B")
	if err != nil {
		t.Fatal(err)
	}
	if offer.Record.ID != 1 {
		t.Errorf("best = %d, want first encountered 1", offer.Record.ID)
	}
}

func TestFindBestOffer_FallbackToPackagePrice(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Milch", "A", 129, 0, "l"),
		rec(2, "Milch", "B", 99, 1, "dose"),
		rec(3, "Milch", "C", 115, -1, "l"),
	}

	offer, err := FindBestOffer(records, "Milch", "")
	if err != nil {
		t.Fatalf("FindBestOffer failed: %v", err)
	}
	if offer.Record.ID != 2 {
		t.Errorf("best = %d, want 2 (lowest package price)", offer.Record.ID)
	}
	if offer.HasQuantity || offer.UnitPrice != nil {
		t.Errorf("expected no unit price, got %+v", offer)
	}
	if offer.Class != quantity.Unknown {
		t.Errorf("class = %v, want unknown", offer.Class)
	}
}

func TestFindBestOffer_PricedOutranksUnpriced(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Milch", "A", 10, 0, "l"),
		rec(2, "Milch", "B", 500, 1, "l"),
		rec(3, "Milch", "C", 5, 0, "l"),
	}
	offer, err := FindBestOffer(records, "Milch", "")
	if err != nil {
		t.Fatal(err)
	}
	if offer.Record.ID != 2 {
		t.Errorf("best = %d, want 2", offer.Record.ID)
	}
}

func TestFindBestOffer_PreferredProviderIsInformational(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Mehl", "Aldi", 250, 500, "g"),
		rec(2, "Mehl", "Lidl", 100, 1, "kg"),
	}

	offer, err := FindBestOffer(records, "Mehl", "Aldi")
	if err != nil {
		t.Fatal(err)
	}
	if offer.Record.ID != 2 {
		t.Errorf("best = %d, want 2 regardless of preferred provider", offer.Record.ID)
	}
	if offer.Current == nil || offer.Current.ID != 1 {
		t.Errorf("current = %+v, want record 1", offer.Current)
	}
	if offer.IsCurrent() {
		t.Error("best offer should not be marked current")
	}

	offer, err = FindBestOffer(records, "Mehl", "Lidl")
	if err != nil {
		t.Fatal(err)
	}
	if !offer.IsCurrent() {
		t.Error("best offer should be marked current")
	}
}

func TestFindBestOffer_SkipsOtherClass(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Eier", "A", 300, 10, "stk"),
		rec(2, "Eier", "B", 1, 1000, "g"),
		rec(3, "Eier", "C", 250, 10, "stk"),
	}
	offer, err := FindBestOffer(records, "Eier", "")
	if err != nil {
		t.Fatal(err)
	}
	if offer.Record.ID != 3 {
		t.Errorf("best = %d, want 3", offer.Record.ID)
	}
	if offer.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", offer.Skipped)
	}
}

func TestFindBestOffer_NoMatch(t *testing.T) {
	records := []model.PriceRecord{rec(1, "Mehl", "A", 100, 1, "kg")}
	if _, err := FindBestOffer(records, "mehl", ""); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for case-different article, got %v", err)
	}
	if _, err := FindBestOffer(nil, "Mehl", ""); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for empty set, got %v", err)
	}
}

func TestFindBestOffer_Monotonic(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Reis", "A", 200, 1, "kg"),
		rec(2, "Reis", "B", 150, 500, "g"),
	}
	before, err := FindBestOffer(records, "Reis", "")
	if err != nil {
		t.Fatal(err)
	}

	records = append(records, rec(3, "Reis", "C", 100, 1, "kg"))
	after, err := FindBestOffer(records, "Reis", "")
	if err != nil {
		t.Fatal(err)
	}
	if *after.UnitPrice >= *before.UnitPrice {
		t.Fatalf("expected lower unit price after adding record")
	}
	if after.Record.ID != 3 {
		t.Errorf("best = %d, want newly added 3", after.Record.ID)
	}
}

func TestAggregator_Sweep(t *testing.T) {
	records := []model.PriceRecord{
		rec(1, "Mehl", "Aldi", 250, 500, "g"),
		rec(2, "Mehl", "Lidl", 100, 1, "kg"),
		rec(3, "Milch", "Aldi", 99, 1, "l"),
	}
	items := []model.ListItem{
		{Article: "Mehl", Provider: "Aldi"},
		{Article: "Zucker"},
		{Article: "Milch", Provider: "Aldi"},
	}

	results := NewAggregator(Epsilon).Sweep(records, items)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Offer.Record.ID != 2 || !results[0].Changed() {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrNoMatch) || results[1].Changed() {
		t.Errorf("expected ErrNoMatch for Zucker, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Changed() {
		t.Errorf("unexpected third result: %+v", results[2])
	}
}

func TestNewAggregator_NegativeEpsilon(t *testing.T) {
	if a := NewAggregator(-1); a.eps != Epsilon {
		t.Errorf("eps = %v, want default", a.eps)
	}
}
