package core

import "testing"

func TestDailyTotals(t *testing.T) {
	entries := []Entry{
		{Date: NewDate(2024, 1, 1), Quantity: 5, TotalCost: Money{Cents: 5000}},
		{Date: NewDate(2024, 1, 2), Quantity: 2, TotalCost: Money{Cents: 1800}},
		{Date: NewDate(2024, 1, 1), Quantity: 3, TotalCost: Money{Cents: 2700}},
		{Date: Date{}, Quantity: 99, TotalCost: Money{Cents: 99999}}, // unparseable date, excluded
	}

	got := DailyTotals(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d: %v", len(got), got)
	}
	if got[0].Date.String() != "2024-01-01" || got[0].Quantity != 8 || got[0].Spend.Cents != 7700 {
		t.Errorf("unexpected first bucket: %+v", got[0])
	}
	if got[1].Date.String() != "2024-01-02" || got[1].Quantity != 2 || got[1].Spend.Cents != 1800 {
		t.Errorf("unexpected second bucket: %+v", got[1])
	}
}

func TestQuantityByBrand(t *testing.T) {
	entries := []Entry{
		{Date: NewDate(2024, 1, 1), Brand: "Marlboro", Quantity: 5},
		{Date: Date{}, Brand: "Camel", Quantity: 10}, // bad date still counts by brand
		{Date: NewDate(2024, 1, 2), Brand: "Marlboro", Quantity: 3},
		{Date: NewDate(2024, 1, 2), Brand: "", Quantity: 4}, // blank brand skipped
	}

	got := QuantityByBrand(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 brands, got %d: %v", len(got), got)
	}
	if got[0].Brand != "Camel" || got[0].Quantity != 10 {
		t.Errorf("unexpected top brand: %+v", got[0])
	}
	if got[1].Brand != "Marlboro" || got[1].Quantity != 8 {
		t.Errorf("unexpected second brand: %+v", got[1])
	}
}

func TestQuantityByBrandTieBreak(t *testing.T) {
	entries := []Entry{
		{Date: NewDate(2024, 1, 1), Brand: "Winston", Quantity: 5},
		{Date: NewDate(2024, 1, 1), Brand: "Camel", Quantity: 5},
	}
	got := QuantityByBrand(entries)
	if got[0].Brand != "Camel" || got[1].Brand != "Winston" {
		t.Fatalf("expected name order on ties, got %v", got)
	}
}

func TestDailyTotalsEmpty(t *testing.T) {
	if got := DailyTotals(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
