// Package sheets defines the ports to the tabular backing store and the
// physical-row conventions every backend shares: row 1 is the protected header,
// data rows start at row 2.
package sheets

import (
	"context"

	"fumo/internal/core"
)

// Header is the canonical column schema, written to row 1 of the store.
var Header = []string{
	"Date", "Brand", "Quantity", "UnitsPerPack", "PricePerPack", "TotalCost",
	"PaymentMethod", "AmountPaid", "Outstanding", "Vendor", "Notes",
}

// EntryStore is the port to the backing tabular store. Implementations own the
// mapping between core.Entry and physical rows; callers own derived-field
// computation and index mapping.
type EntryStore interface {
	// ListAll reads every data row in store order. Missing trailing columns are
	// backfilled with zero values and non-parseable cells are coerced to their
	// zero sentinel, so one malformed row never aborts the read.
	ListAll(ctx context.Context) ([]core.Entry, error)

	// Append writes one new physical row at the end and returns an opaque
	// reference to it.
	Append(ctx context.Context, e core.Entry) (rowRef string, err error)

	// Replace overwrites the full contents of one data row. physicalRow < 2
	// fails with ErrProtectedRow before any store call. Backends without an
	// in-place multi-cell update implement delete-then-insert, which can fail
	// partially; that state surfaces as *PartialReplaceError.
	Replace(ctx context.Context, physicalRow int, e core.Entry) error

	// Remove deletes one data row; subsequent rows shift up by one position.
	// physicalRow < 2 fails with ErrProtectedRow before any store call.
	Remove(ctx context.Context, physicalRow int) error
}
