// Package storage provides a SQLite-backed entry store. It serves as the
// local mirror target for the event worker and as a standalone backend for
// deployments without spreadsheet access.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"fumo/internal/core"
	"fumo/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ sheets.EntryStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const entryColumns = `purchase_date, brand, quantity, units_per_pack,
	price_per_pack_cents, total_cost_cents, payment_method,
	amount_paid_cents, outstanding_cents, vendor, notes`

// ListAll returns every entry in insertion order.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// Append inserts one entry and returns its id as the reference.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryArgs(e)...)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert entry id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", id,
		"brand", e.Brand,
		"total_cents", e.TotalCost.Cents)

	return strconv.FormatInt(id, 10), nil
}

// Replace overwrites the entry at a physical row position. Position maps to
// insertion order, matching the spreadsheet's row layout.
func (r *SQLiteRepository) Replace(ctx context.Context, physicalRow int, e core.Entry) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	id, err := r.idAtRow(ctx, physicalRow)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE entries SET purchase_date = ?, brand = ?, quantity = ?, units_per_pack = ?,
			price_per_pack_cents = ?, total_cost_cents = ?, payment_method = ?,
			amount_paid_cents = ?, outstanding_cents = ?, vendor = ?, notes = ?
		WHERE id = ?`,
		append(entryArgs(e), id)...)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	return nil
}

// Remove deletes the entry at a physical row position. Later entries shift
// up one position, as a spreadsheet row deletion would.
func (r *SQLiteRepository) Remove(ctx context.Context, physicalRow int) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	id, err := r.idAtRow(ctx, physicalRow)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return nil
}

// idAtRow resolves a physical row position to the row id at that position.
func (r *SQLiteRepository) idAtRow(ctx context.Context, physicalRow int) (int64, error) {
	offset, err := sheets.IndexForRow(physicalRow)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM entries ORDER BY id LIMIT 1 OFFSET ?`, offset).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sheets.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve row %d: %w", physicalRow, err)
	}
	return id, nil
}

func entryArgs(e core.Entry) []any {
	return []any{
		e.Date.String(),
		e.Brand,
		e.Quantity,
		e.UnitsPerPack,
		e.PricePerPack.Cents,
		e.TotalCost.Cents,
		string(e.PaymentMethod),
		e.AmountPaid.Cents,
		e.Outstanding.Cents,
		e.Vendor,
		e.Notes,
	}
}

func scanEntry(rows *sql.Rows) (core.Entry, error) {
	var (
		e       core.Entry
		date    string
		payment string
	)
	err := rows.Scan(&date, &e.Brand, &e.Quantity, &e.UnitsPerPack,
		&e.PricePerPack.Cents, &e.TotalCost.Cents, &payment,
		&e.AmountPaid.Cents, &e.Outstanding.Cents, &e.Vendor, &e.Notes)
	if err != nil {
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	// A blank or malformed date column yields the zero date, same leniency
	// as the spreadsheet reader.
	if d, err := core.ParseDate(date); err == nil {
		e.Date = d
	}
	e.PaymentMethod = core.PaymentMethod(payment)
	return e, nil
}
