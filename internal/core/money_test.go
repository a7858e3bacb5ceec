package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.34", 1234},
		{"12,34", 1234},
		{"12", 1200},
		{"0", 0},
		{"0.00", 0},
		{".5", 50},
		{"12.345", 1235},
		{"12.344", 1234},
		{" 180 ", 18000},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if err != nil {
			t.Errorf("ParseDecimalToCents(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDecimalToCentsRejects(t *testing.T) {
	for _, bad := range []string{"", "-1", "+1", "1.2.3", "abc", "12a"} {
		if _, err := ParseDecimalToCents(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseDecimalToCents(%q): expected ErrInvalidAmount, got %v", bad, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-1234, "-12.34"},
		{18000, "180.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
