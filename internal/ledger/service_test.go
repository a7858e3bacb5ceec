package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"fumo/internal/amqp"
	"fumo/internal/core"
	"fumo/internal/sheets"
	"fumo/internal/sheets/memory"
)

// countingStore wraps a store and counts ListAll calls, to observe caching.
type countingStore struct {
	sheets.EntryStore
	listCalls int
}

func (c *countingStore) ListAll(ctx context.Context) ([]core.Entry, error) {
	c.listCalls++
	return c.EntryStore.ListAll(ctx)
}

type recordingPublisher struct {
	events []*amqp.EntryEvent
	err    error
}

func (r *recordingPublisher) PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func testForm(brand string) EntryForm {
	d, _ := core.ParseDate("2026-03-01")
	return EntryForm{
		Date:         d,
		Brand:        brand,
		Quantity:     10,
		PricePerPack: core.Money{Cents: 20000},
		AmountPaid:   core.Money{Cents: 5000},
		Vendor:       "Tabaccheria Verdi",
	}
}

func newTestService(t *testing.T, seed ...core.Entry) (*Service, *countingStore, *recordingPublisher) {
	t.Helper()
	cs := &countingStore{EntryStore: memory.New(seed...)}
	pub := &recordingPublisher{}
	svc := NewService(cs, "test", time.Minute, pub)
	t.Cleanup(svc.Close)
	return svc, cs, pub
}

func TestAddDerivesCostFields(t *testing.T) {
	svc, _, pub := newTestService(t)

	e, err := svc.Add(context.Background(), testForm("Marlboro"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if e.UnitsPerPack != core.DefaultUnitsPerPack {
		t.Errorf("expected default units per pack, got %d", e.UnitsPerPack)
	}
	if e.PaymentMethod != core.PaymentCash {
		t.Errorf("expected default payment method cash, got %q", e.PaymentMethod)
	}
	if e.TotalCost.Cents != 10000 {
		t.Errorf("expected total 10000 cents, got %d", e.TotalCost.Cents)
	}
	if e.Outstanding.Cents != 5000 {
		t.Errorf("expected outstanding 5000 cents, got %d", e.Outstanding.Cents)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreated {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestAddRejectsInvalidForm(t *testing.T) {
	svc, cs, pub := newTestService(t)

	f := testForm("Marlboro")
	f.Quantity = 0
	if _, err := svc.Add(context.Background(), f); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if items, _ := cs.EntryStore.ListAll(context.Background()); len(items) != 0 {
		t.Errorf("invalid add must not reach the store, found %d entries", len(items))
	}
	if len(pub.events) != 0 {
		t.Errorf("invalid add must not publish, got %d events", len(pub.events))
	}
}

func TestListUsesCacheUntilMutation(t *testing.T) {
	svc, cs, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if cs.listCalls != 1 {
		t.Fatalf("expected 1 store read, got %d", cs.listCalls)
	}

	if _, err := svc.Add(ctx, testForm("Camel")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if cs.listCalls != 2 {
		t.Fatalf("expected cache invalidation after Add, store reads = %d", cs.listCalls)
	}
	if len(items) != 1 || items[0].Brand != "Camel" {
		t.Fatalf("expected the added entry in the fresh list, got %+v", items)
	}
}

func TestListReturnsCopy(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, testForm("Camel")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	first, _ := svc.List(ctx)
	first[0].Brand = "mutated"
	second, _ := svc.List(ctx)
	if second[0].Brand != "Camel" {
		t.Error("caller mutation leaked into the cached snapshot")
	}
}

func TestUpdateReplacesRow(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, testForm("Marlboro")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	f := testForm("Lucky Strike")
	f.AmountPaid = core.Money{Cents: 10000}
	e, err := svc.Update(ctx, 2, f)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if e.Outstanding.Cents != 0 {
		t.Errorf("expected outstanding 0 after full payment, got %d", e.Outstanding.Cents)
	}

	items, _ := svc.List(ctx)
	if len(items) != 1 || items[0].Brand != "Lucky Strike" {
		t.Fatalf("expected replaced entry, got %+v", items)
	}
	last := pub.events[len(pub.events)-1]
	if last.Action != amqp.ActionUpdated || last.Row != 2 {
		t.Errorf("expected updated event for row 2, got %+v", last)
	}
}

func TestUpdateRejectsHeaderRow(t *testing.T) {
	svc, cs, _ := newTestService(t)

	for _, row := range []int{1, 0, -3} {
		if _, err := svc.Update(context.Background(), row, testForm("Camel")); !errors.Is(err, sheets.ErrProtectedRow) {
			t.Errorf("row %d: expected ErrProtectedRow, got %v", row, err)
		}
	}
	if cs.listCalls != 0 {
		t.Error("header guard must fire before any store access")
	}
}

func TestDeleteShiftsFollowingRows(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	for _, brand := range []string{"Marlboro", "Camel", "Winston"} {
		if _, err := svc.Add(ctx, testForm(brand)); err != nil {
			t.Fatalf("Add %s failed: %v", brand, err)
		}
	}
	if err := svc.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	items, _ := svc.List(ctx)
	if len(items) != 2 || items[0].Brand != "Marlboro" || items[1].Brand != "Winston" {
		t.Fatalf("expected [Marlboro Winston] after delete, got %+v", items)
	}
	last := pub.events[len(pub.events)-1]
	if last.Action != amqp.ActionDeleted || last.Row != 3 {
		t.Errorf("expected deleted event for row 3, got %+v", last)
	}
}

func TestDeleteMissingRow(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Delete(context.Background(), 10); !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByRow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, testForm("Marlboro")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	e, err := svc.GetByRow(ctx, 2)
	if err != nil {
		t.Fatalf("GetByRow failed: %v", err)
	}
	if e.Brand != "Marlboro" {
		t.Errorf("expected Marlboro at row 2, got %q", e.Brand)
	}
	if _, err := svc.GetByRow(ctx, 3); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty row, got %v", err)
	}
	if _, err := svc.GetByRow(ctx, 1); !errors.Is(err, sheets.ErrProtectedRow) {
		t.Errorf("expected ErrProtectedRow for header, got %v", err)
	}
}

func TestFind(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	marlboro := testForm("Marlboro Gold")
	camel := testForm("Camel")
	camel.Vendor = "Bar Centrale"
	camel.Notes = "carton deal"
	for _, f := range []EntryForm{marlboro, camel} {
		if _, err := svc.Add(ctx, f); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		keyword  string
		wantRows []int
	}{
		{"brand case-insensitive", "marlboro", []int{2}},
		{"substring of brand", "GOLD", []int{2}},
		{"vendor field", "centrale", []int{3}},
		{"notes field", "carton", []int{3}},
		{"numeric field", "100.00", []int{2, 3}},
		{"date field", "2026-03", []int{2, 3}},
		{"no hits", "pall mall", nil},
		{"empty keyword", "", nil},
		{"whitespace keyword", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := svc.Find(ctx, tt.keyword)
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			var rows []int
			for _, m := range matches {
				rows = append(rows, m.Row)
			}
			if len(rows) != len(tt.wantRows) {
				t.Fatalf("expected rows %v, got %v", tt.wantRows, rows)
			}
			for i := range rows {
				if rows[i] != tt.wantRows[i] {
					t.Fatalf("expected rows %v, got %v", tt.wantRows, rows)
				}
			}
		})
	}
}

func TestPublisherFailureDoesNotFailMutation(t *testing.T) {
	cs := &countingStore{EntryStore: memory.New()}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(cs, "test", time.Minute, pub)
	t.Cleanup(svc.Close)

	if _, err := svc.Add(context.Background(), testForm("Marlboro")); err != nil {
		t.Fatalf("Add must succeed despite publish failure, got %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewService(memory.New(), "test", time.Minute, nil)
	t.Cleanup(svc.Close)

	if _, err := svc.Add(context.Background(), testForm("Marlboro")); err != nil {
		t.Fatalf("Add with nil publisher failed: %v", err)
	}
}
