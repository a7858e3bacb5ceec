package core

import "sort"

// DateTotal is one bucket of the per-day reductions.
type DateTotal struct {
	Date     Date
	Quantity int
	Spend    Money
}

// BrandTotal is one bucket of the per-brand reduction.
type BrandTotal struct {
	Brand    string
	Quantity int
}

// DailyTotals groups entries by calendar date and sums quantity and total cost,
// ordered by date ascending. Entries with a zero (unparseable) date are skipped.
func DailyTotals(entries []Entry) []DateTotal {
	byDay := map[Date]*DateTotal{}
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		day := NewDate(e.Date.Year(), int(e.Date.Month()), e.Date.Day())
		t, ok := byDay[day]
		if !ok {
			t = &DateTotal{Date: day}
			byDay[day] = t
		}
		t.Quantity += e.Quantity
		t.Spend.Cents += e.TotalCost.Cents
	}
	out := make([]DateTotal, 0, len(byDay))
	for _, t := range byDay {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// QuantityByBrand groups entries by brand and sums quantity, ordered by
// descending sum (brand name breaks ties). Blank brands are skipped; a bad
// date does not exclude an entry here.
func QuantityByBrand(entries []Entry) []BrandTotal {
	byBrand := map[string]int{}
	for _, e := range entries {
		if e.Brand == "" {
			continue
		}
		byBrand[e.Brand] += e.Quantity
	}
	out := make([]BrandTotal, 0, len(byBrand))
	for brand, qty := range byBrand {
		out = append(out, BrandTotal{Brand: brand, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}
