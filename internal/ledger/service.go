// Package ledger wires the entry store, the read cache, and the mutation
// paths together. Every user-triggered operation goes through here.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"fumo/internal/amqp"
	"fumo/internal/cache"
	"fumo/internal/core"
	"fumo/internal/sheets"
)

// Publisher emits entry mutation events for the mirror worker. Optional.
type Publisher interface {
	PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error
}

// EntryForm is the user input for add/update. TotalCost and Outstanding are
// not part of it; they are always derived here.
type EntryForm struct {
	Date          core.Date
	Brand         string
	Quantity      int
	UnitsPerPack  int // 0 means DefaultUnitsPerPack
	PricePerPack  core.Money
	PaymentMethod core.PaymentMethod // empty means Cash
	AmountPaid    core.Money
	Vendor        string
	Notes         string
}

// Match is one search hit: the entry plus the physical row it currently
// occupies. Row positions shift on delete, so a Match goes stale as soon as
// another mutation lands.
type Match struct {
	Row   int
	Entry core.Entry
}

type Service struct {
	store sheets.EntryStore
	pub   Publisher

	// Snapshot cache over ListAll. One key per store identity; every mutation
	// path invalidates before returning so a session reads its own writes.
	snapshots cache.Cache[[]core.Entry]
	cacheKey  string

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewService creates a service over store. cacheKey identifies the store (the
// spreadsheet ID); ttl bounds how stale a snapshot may get between writes from
// other sessions. pub may be nil.
func NewService(store sheets.EntryStore, cacheKey string, ttl time.Duration, pub Publisher) *Service {
	s := &Service{
		store:       store,
		pub:         pub,
		snapshots:   cache.NewLRUCache[[]core.Entry](4, ttl),
		cacheKey:    cacheKey,
		stopCleanup: make(chan struct{}),
	}
	go s.startCacheCleanup(10 * time.Minute)
	return s
}

func (s *Service) startCacheCleanup(interval time.Duration) {
	cleaner, ok := s.snapshots.(cache.Cleaner)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := cleaner.CleanExpired(); n > 0 {
				slog.Debug("Snapshot cache cleanup", "removed", n)
			}
		case <-s.stopCleanup:
			return
		}
	}
}

// Close stops the cache janitor.
func (s *Service) Close() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// List returns the current record set, get-or-populate through the cache.
func (s *Service) List(ctx context.Context) ([]core.Entry, error) {
	if items, found := s.snapshots.Get(s.cacheKey); found {
		out := make([]core.Entry, len(items))
		copy(out, items)
		return out, nil
	}
	items, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	s.snapshots.Set(s.cacheKey, items)
	out := make([]core.Entry, len(items))
	copy(out, items)
	return out, nil
}

// Invalidate drops the cached snapshot. Every mutation path calls this before
// returning; it is exported for callers that learn of out-of-band changes.
func (s *Service) Invalidate() {
	s.snapshots.Delete(s.cacheKey)
}

// Add computes the derived fields, validates, and appends one entry.
func (s *Service) Add(ctx context.Context, f EntryForm) (core.Entry, error) {
	e, err := s.buildEntry(f)
	if err != nil {
		return core.Entry{}, err
	}
	ref, err := s.store.Append(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("append entry: %w", err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.NewEntryEvent(amqp.ActionCreated, 0, e))
	slog.InfoContext(ctx, "Entry added", "ref", ref, "brand", e.Brand, "total_cents", e.TotalCost.Cents)
	return e, nil
}

// Update replaces the full contents of one data row.
func (s *Service) Update(ctx context.Context, physicalRow int, f EntryForm) (core.Entry, error) {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return core.Entry{}, err
	}
	e, err := s.buildEntry(f)
	if err != nil {
		return core.Entry{}, err
	}
	if err := s.store.Replace(ctx, physicalRow, e); err != nil {
		// A partial replace still changed the store: the snapshot is stale.
		s.Invalidate()
		return core.Entry{}, fmt.Errorf("replace row %d: %w", physicalRow, err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.NewEntryEvent(amqp.ActionUpdated, physicalRow, e))
	return e, nil
}

// Delete removes one data row.
func (s *Service) Delete(ctx context.Context, physicalRow int) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, physicalRow); err != nil {
		return fmt.Errorf("remove row %d: %w", physicalRow, err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.NewEntryEvent(amqp.ActionDeleted, physicalRow, core.Entry{}))
	return nil
}

// GetByRow returns the entry currently at a physical row, for edit forms.
func (s *Service) GetByRow(ctx context.Context, physicalRow int) (core.Entry, error) {
	i, err := sheets.IndexForRow(physicalRow)
	if err != nil {
		return core.Entry{}, err
	}
	items, err := s.List(ctx)
	if err != nil {
		return core.Entry{}, err
	}
	if i >= len(items) {
		return core.Entry{}, sheets.ErrNotFound
	}
	return items[i], nil
}

// Find returns entries whose string representation contains keyword,
// case-insensitive, in physical row order. An empty or whitespace-only
// keyword matches nothing.
func (s *Service) Find(ctx context.Context, keyword string) ([]Match, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(keyword)
	var out []Match
	for i, e := range items {
		if entryMatches(e, needle) {
			row, err := sheets.RowForIndex(i)
			if err != nil {
				return nil, err
			}
			out = append(out, Match{Row: row, Entry: e})
		}
	}
	return out, nil
}

// entryMatches checks a lowercase needle against every field's string form.
func entryMatches(e core.Entry, needle string) bool {
	fields := []string{
		e.Date.String(),
		e.Brand,
		strconv.Itoa(e.Quantity),
		strconv.Itoa(e.UnitsPerPack),
		e.PricePerPack.String(),
		e.TotalCost.String(),
		string(e.PaymentMethod),
		e.AmountPaid.String(),
		e.Outstanding.String(),
		e.Vendor,
		e.Notes,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// buildEntry applies form defaults, derives cost fields, and validates.
func (s *Service) buildEntry(f EntryForm) (core.Entry, error) {
	if f.UnitsPerPack == 0 {
		f.UnitsPerPack = core.DefaultUnitsPerPack
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = core.PaymentCash
	}
	total, outstanding, err := core.ComputeCost(f.Quantity, f.UnitsPerPack, f.PricePerPack, f.AmountPaid)
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		Date:          f.Date,
		Brand:         f.Brand,
		Quantity:      f.Quantity,
		UnitsPerPack:  f.UnitsPerPack,
		PricePerPack:  f.PricePerPack,
		TotalCost:     total,
		PaymentMethod: f.PaymentMethod,
		AmountPaid:    f.AmountPaid,
		Outstanding:   outstanding,
		Vendor:        f.Vendor,
		Notes:         f.Notes,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// publish is best-effort: the store write already succeeded, so a broker
// failure is logged and swallowed rather than failing the user operation.
func (s *Service) publish(ctx context.Context, event *amqp.EntryEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishEntryEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "Entry event publish failed", "action", event.Action, "error", err)
	}
}
