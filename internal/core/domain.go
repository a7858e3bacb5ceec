package core

import (
	"errors"
	"time"
)

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentCredit PaymentMethod = "Credit"

	// DefaultUnitsPerPack is the package size assumed when the form leaves it blank.
	DefaultUnitsPerPack = 20
)

type (
	PaymentMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is one purchase/consumption record. TotalCost and Outstanding are
	// derived by ComputeCost at write time and never accepted as input.
	Entry struct {
		Date          Date
		Brand         string
		Quantity      int
		UnitsPerPack  int
		PricePerPack  Money
		TotalCost     Money
		PaymentMethod PaymentMethod
		AmountPaid    Money
		Outstanding   Money
		Vendor        string
		Notes         string
	}
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidUnitsPerPack  = errors.New("invalid units per pack")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNegativeOutstanding  = errors.New("negative outstanding balance")
)

// NewDate creates a Date at UTC midnight from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. The zero Date marks an unparseable value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the canonical sheet representation.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (pm PaymentMethod) Validate() error {
	switch pm {
	case PaymentCash, PaymentCredit:
		return nil
	default:
		return ErrInvalidPaymentMethod
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if e.UnitsPerPack <= 0 {
		return ErrInvalidUnitsPerPack
	}
	if err := e.PricePerPack.Validate(); err != nil {
		return err
	}
	if err := e.AmountPaid.Validate(); err != nil {
		return err
	}
	if err := e.PaymentMethod.Validate(); err != nil {
		return err
	}
	if e.Outstanding.Cents < 0 {
		return ErrNegativeOutstanding
	}
	return nil
}
