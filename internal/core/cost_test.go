package core

import (
	"errors"
	"testing"
)

func TestComputeCost(t *testing.T) {
	cases := []struct {
		name            string
		qty, units      int
		price, paid     int64
		wantTotal       int64
		wantOutstanding int64
	}{
		{"half pack", 10, 20, 20000, 5000, 10000, 5000},
		{"overpaid clamps to zero", 20, 20, 18000, 20000, 18000, 0},
		{"exact pack", 20, 20, 18000, 0, 18000, 18000},
		{"free sample", 5, 20, 0, 0, 0, 0},
		{"rounding half up", 1, 3, 100, 0, 33, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, outstanding, err := ComputeCost(tc.qty, tc.units, Money{Cents: tc.price}, Money{Cents: tc.paid})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total.Cents != tc.wantTotal {
				t.Errorf("total = %d, want %d", total.Cents, tc.wantTotal)
			}
			if outstanding.Cents != tc.wantOutstanding {
				t.Errorf("outstanding = %d, want %d", outstanding.Cents, tc.wantOutstanding)
			}
		})
	}
}

func TestComputeCostRejectsBadInput(t *testing.T) {
	cases := []struct {
		name        string
		qty, units  int
		price, paid int64
	}{
		{"zero units per pack", 10, 0, 100, 0},
		{"negative units per pack", 10, -1, 100, 0},
		{"zero quantity", 0, 20, 100, 0},
		{"negative price", 1, 20, -100, 0},
		{"negative paid", 1, 20, 100, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ComputeCost(tc.qty, tc.units, Money{Cents: tc.price}, Money{Cents: tc.paid})
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestComputeCostOutstandingNeverNegative(t *testing.T) {
	for paid := int64(0); paid <= 30000; paid += 1500 {
		_, outstanding, err := ComputeCost(10, 20, Money{Cents: 20000}, Money{Cents: paid})
		if err != nil {
			t.Fatalf("paid=%d: %v", paid, err)
		}
		if outstanding.Cents < 0 {
			t.Fatalf("paid=%d: outstanding went negative: %d", paid, outstanding.Cents)
		}
	}
}
