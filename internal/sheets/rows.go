package sheets

// HeaderRow is the one-based position of the protected header row.
const HeaderRow = 1

// RowForIndex maps a zero-based logical record index to its one-based physical
// row position. Row 1 is the header, so the first data row is row 2.
func RowForIndex(i int) (int, error) {
	if i < 0 {
		return 0, ErrProtectedRow
	}
	return i + 2, nil
}

// IndexForRow is the inverse mapping. Any physical row that is not a data row
// (the header or below) fails with ErrProtectedRow.
func IndexForRow(p int) (int, error) {
	if err := CheckDataRow(p); err != nil {
		return 0, err
	}
	return p - 2, nil
}

// CheckDataRow guards mutations: only rows ≥ 2 are legal targets. This is what
// keeps a miscomputed index from deleting or overwriting the header.
func CheckDataRow(p int) error {
	if p <= HeaderRow {
		return ErrProtectedRow
	}
	return nil
}
