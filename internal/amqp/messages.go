package amqp

import (
	"encoding/json"
	"time"

	"fumo/internal/core"
)

type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// EntryEvent describes one mutation of the backing store. It carries the full
// entry payload so the mirror worker never has to read the spreadsheet back.
type EntryEvent struct {
	Action    EventAction  `json:"action"`
	Row       int          `json:"row"` // physical row at event time; 0 for appends
	Entry     EntryPayload `json:"entry"`
	Timestamp time.Time    `json:"timestamp"`
}

// EntryPayload is the wire form of a core.Entry. Money travels as cents.
type EntryPayload struct {
	Date              string `json:"date"`
	Brand             string `json:"brand"`
	Quantity          int    `json:"quantity"`
	UnitsPerPack      int    `json:"units_per_pack"`
	PricePerPackCents int64  `json:"price_per_pack_cents"`
	TotalCostCents    int64  `json:"total_cost_cents"`
	PaymentMethod     string `json:"payment_method"`
	AmountPaidCents   int64  `json:"amount_paid_cents"`
	OutstandingCents  int64  `json:"outstanding_cents"`
	Vendor            string `json:"vendor"`
	Notes             string `json:"notes"`
}

func NewEntryEvent(action EventAction, row int, e core.Entry) *EntryEvent {
	return &EntryEvent{
		Action:    action,
		Row:       row,
		Entry:     payloadFromEntry(e),
		Timestamp: time.Now(),
	}
}

func payloadFromEntry(e core.Entry) EntryPayload {
	return EntryPayload{
		Date:              e.Date.String(),
		Brand:             e.Brand,
		Quantity:          e.Quantity,
		UnitsPerPack:      e.UnitsPerPack,
		PricePerPackCents: e.PricePerPack.Cents,
		TotalCostCents:    e.TotalCost.Cents,
		PaymentMethod:     string(e.PaymentMethod),
		AmountPaidCents:   e.AmountPaid.Cents,
		OutstandingCents:  e.Outstanding.Cents,
		Vendor:            e.Vendor,
		Notes:             e.Notes,
	}
}

// ToEntry converts the payload back into the domain type. An unparseable date
// becomes the zero Date, same as a store read.
func (p EntryPayload) ToEntry() core.Entry {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		date = core.Date{}
	}
	return core.Entry{
		Date:          date,
		Brand:         p.Brand,
		Quantity:      p.Quantity,
		UnitsPerPack:  p.UnitsPerPack,
		PricePerPack:  core.Money{Cents: p.PricePerPackCents},
		TotalCost:     core.Money{Cents: p.TotalCostCents},
		PaymentMethod: core.PaymentMethod(p.PaymentMethod),
		AmountPaid:    core.Money{Cents: p.AmountPaidCents},
		Outstanding:   core.Money{Cents: p.OutstandingCents},
		Vendor:        p.Vendor,
		Notes:         p.Notes,
	}
}

// ToJSON converts the event to JSON bytes
func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryEventFromJSON creates an event from JSON bytes
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
