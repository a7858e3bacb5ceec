// Package memory is an in-process EntryStore with the same physical-row
// semantics as the spreadsheet backend. It backs tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fumo/internal/core"
	"fumo/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.Entry
}

var _ sheets.EntryStore = (*Store)(nil)

func New(seed ...core.Entry) *Store {
	s := &Store{}
	s.items = append(s.items, seed...)
	return s
}

func (s *Store) ListAll(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	row, _ := sheets.RowForIndex(len(s.items) - 1)
	return fmt.Sprintf("mem:%d", row), nil
}

func (s *Store) Replace(_ context.Context, physicalRow int, e core.Entry) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := sheets.IndexForRow(physicalRow)
	if err != nil {
		return err
	}
	if i >= len(s.items) {
		return sheets.ErrNotFound
	}
	s.items[i] = e
	return nil
}

func (s *Store) Remove(_ context.Context, physicalRow int) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := sheets.IndexForRow(physicalRow)
	if err != nil {
		return err
	}
	if i >= len(s.items) {
		return sheets.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}
