package worker

import (
	"context"
	"testing"

	"fumo/internal/amqp"
	"fumo/internal/core"
	"fumo/internal/sheets/memory"
)

func mirroredEntry(brand string) core.Entry {
	return core.Entry{
		Date:          core.NewDate(2026, 3, 1),
		Brand:         brand,
		Quantity:      10,
		UnitsPerPack:  20,
		PricePerPack:  core.Money{Cents: 20000},
		TotalCost:     core.Money{Cents: 10000},
		PaymentMethod: core.PaymentCash,
		AmountPaid:    core.Money{Cents: 10000},
	}
}

func TestHandleCreatedEvent(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	event := amqp.NewEntryEvent(amqp.ActionCreated, 0, mirroredEntry("Marlboro"))
	if err := w.HandleEntryEvent(ctx, event); err != nil {
		t.Fatalf("HandleEntryEvent failed: %v", err)
	}

	items, _ := mirror.ListAll(ctx)
	if len(items) != 1 || items[0].Brand != "Marlboro" {
		t.Fatalf("expected mirrored entry, got %+v", items)
	}
}

func TestHandleUpdatedEvent(t *testing.T) {
	mirror := memory.New(mirroredEntry("Marlboro"))
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	event := amqp.NewEntryEvent(amqp.ActionUpdated, 2, mirroredEntry("Camel"))
	if err := w.HandleEntryEvent(ctx, event); err != nil {
		t.Fatalf("HandleEntryEvent failed: %v", err)
	}

	items, _ := mirror.ListAll(ctx)
	if len(items) != 1 || items[0].Brand != "Camel" {
		t.Fatalf("expected replaced entry, got %+v", items)
	}
}

func TestHandleUpdatedEventForMissingRowAppends(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	event := amqp.NewEntryEvent(amqp.ActionUpdated, 5, mirroredEntry("Camel"))
	if err := w.HandleEntryEvent(ctx, event); err != nil {
		t.Fatalf("HandleEntryEvent failed: %v", err)
	}

	items, _ := mirror.ListAll(ctx)
	if len(items) != 1 || items[0].Brand != "Camel" {
		t.Fatalf("expected appended entry for missing row, got %+v", items)
	}
}

func TestHandleDeletedEvent(t *testing.T) {
	mirror := memory.New(mirroredEntry("Marlboro"), mirroredEntry("Camel"))
	w := NewMirrorWorker(mirror)
	ctx := context.Background()

	event := amqp.NewEntryEvent(amqp.ActionDeleted, 2, core.Entry{})
	if err := w.HandleEntryEvent(ctx, event); err != nil {
		t.Fatalf("HandleEntryEvent failed: %v", err)
	}

	items, _ := mirror.ListAll(ctx)
	if len(items) != 1 || items[0].Brand != "Camel" {
		t.Fatalf("expected first entry removed, got %+v", items)
	}
}

func TestHandleDeletedEventIsIdempotent(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror)

	event := amqp.NewEntryEvent(amqp.ActionDeleted, 2, core.Entry{})
	if err := w.HandleEntryEvent(context.Background(), event); err != nil {
		t.Fatalf("delete of missing row must not error, got %v", err)
	}
}

func TestHandleUnknownActionDiscards(t *testing.T) {
	w := NewMirrorWorker(memory.New())

	event := amqp.NewEntryEvent(amqp.EventAction("unknown"), 0, core.Entry{})
	if err := w.HandleEntryEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown action must be discarded without error, got %v", err)
	}
}
