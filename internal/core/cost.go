package core

import "errors"

// ErrInvalidArgument is returned when the cost calculator is handed values the
// form validation should already have rejected, in particular a non-positive
// pack size that would otherwise divide by zero.
var ErrInvalidArgument = errors.New("invalid argument")

// ComputeCost derives the monetary total and outstanding balance for a purchase.
//
// total = pricePerPack × (quantity / unitsPerPack), with real-valued division
// carried out in cents and rounded half-up. outstanding = max(total−amountPaid, 0),
// so it is never negative.
func ComputeCost(quantity, unitsPerPack int, pricePerPack, amountPaid Money) (total, outstanding Money, err error) {
	if quantity <= 0 || unitsPerPack <= 0 {
		return Money{}, Money{}, ErrInvalidArgument
	}
	if pricePerPack.Cents < 0 || amountPaid.Cents < 0 {
		return Money{}, Money{}, ErrInvalidArgument
	}

	n := pricePerPack.Cents * int64(quantity)
	d := int64(unitsPerPack)
	total = Money{Cents: (n + d/2) / d}

	rest := total.Cents - amountPaid.Cents
	if rest < 0 {
		rest = 0
	}
	return total, Money{Cents: rest}, nil
}
