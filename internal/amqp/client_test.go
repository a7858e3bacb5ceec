package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"fumo/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // shift overflow still capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"closed channel", errors.New("message channel closed"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"validation error", errors.New("invalid quantity"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestEntryEventRoundTrip(t *testing.T) {
	e := core.Entry{
		Date:          core.NewDate(2024, 1, 2),
		Brand:         "Marlboro",
		Quantity:      10,
		UnitsPerPack:  20,
		PricePerPack:  core.Money{Cents: 20000},
		TotalCost:     core.Money{Cents: 10000},
		PaymentMethod: core.PaymentCredit,
		AmountPaid:    core.Money{Cents: 5000},
		Outstanding:   core.Money{Cents: 5000},
		Vendor:        "Corner shop",
		Notes:         "late night",
	}

	event := NewEntryEvent(ActionUpdated, 5, e)
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := EntryEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != ActionUpdated || got.Row != 5 {
		t.Errorf("unexpected envelope: %+v", got)
	}
	if back := got.Entry.ToEntry(); back != e {
		t.Errorf("payload round trip mismatch:\n got %+v\nwant %+v", back, e)
	}
}

func TestEntryEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := EntryEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestPayloadBadDateCoercesToZero(t *testing.T) {
	p := EntryPayload{Date: "whenever", Brand: "Camel", Quantity: 1}
	if e := p.ToEntry(); !e.Date.IsZero() {
		t.Fatalf("expected zero date, got %v", e.Date)
	}
}
