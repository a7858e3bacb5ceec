package google

import (
	"fmt"
	"strconv"
	"strings"

	"fumo/internal/core"
	"fumo/internal/sheets"
)

// entriesFromValues converts a Values.Get result into entries, one per
// returned row. A blank row inside the data range stays in the sequence as a
// zero-value entry: entry i must always sit at physical row i+2, otherwise
// every row below a gap would be edited or deleted one position off.
func entriesFromValues(values [][]any) []core.Entry {
	out := make([]core.Entry, 0, len(values))
	for _, row := range values {
		out = append(out, parseEntry(toStrings(row)))
	}
	return out
}

// parseEntry converts one values row into an Entry, backfilling missing
// trailing columns and coercing non-parseable cells to zero sentinels so a
// single malformed row never aborts a read.
func parseEntry(cols []string) core.Entry {
	if len(cols) < len(sheets.Header) {
		padded := make([]string, len(sheets.Header))
		copy(padded, cols)
		cols = padded
	}
	date, err := core.ParseDate(strings.TrimSpace(cols[0]))
	if err != nil {
		date = core.Date{}
	}
	return core.Entry{
		Date:          date,
		Brand:         strings.TrimSpace(cols[1]),
		Quantity:      parseInt(cols[2]),
		UnitsPerPack:  parseInt(cols[3]),
		PricePerPack:  core.Money{Cents: parseCents(cols[4])},
		TotalCost:     core.Money{Cents: parseCents(cols[5])},
		PaymentMethod: core.PaymentMethod(strings.TrimSpace(cols[6])),
		AmountPaid:    core.Money{Cents: parseCents(cols[7])},
		Outstanding:   core.Money{Cents: parseCents(cols[8])},
		Vendor:        strings.TrimSpace(cols[9]),
		Notes:         strings.TrimSpace(cols[10]),
	}
}

// rowValues serializes an Entry into the 11-column sheet layout. Monetary
// amounts go out as decimals so the sheet stores numbers, not strings.
func rowValues(e core.Entry) []any {
	return []any{
		e.Date.String(),
		e.Brand,
		e.Quantity,
		e.UnitsPerPack,
		e.PricePerPack.Amount(),
		e.TotalCost.Amount(),
		string(e.PaymentMethod),
		e.AmountPaid.Amount(),
		e.Outstanding.Amount(),
		e.Vendor,
		e.Notes,
	}
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Sheets sometimes hands integers back as "10.0"
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func parseCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.TrimLeft(s, "€$£ ")
	// Normalize currency noise: when both separators appear the later one is
	// the decimal mark and the other is grouping; a lone comma is a decimal
	// comma ("1.234,56", "1,234.56" and "12,34" all parse).
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if f < 0 {
		return int64(f*100.0 - 0.5)
	}
	return int64(f*100.0 + 0.5)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
