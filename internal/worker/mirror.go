// Package worker applies entry events from the broker to a local mirror
// store, keeping a queryable SQLite copy of the spreadsheet ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fumo/internal/amqp"
	"fumo/internal/sheets"
)

// MirrorWorker consumes entry events and replays them against a mirror store.
type MirrorWorker struct {
	mirror sheets.EntryStore
}

func NewMirrorWorker(mirror sheets.EntryStore) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleEntryEvent processes a single entry event from AMQP. A returned error
// requeues the message, so errors the mirror cannot recover from by retrying
// are logged and swallowed instead.
func (w *MirrorWorker) HandleEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"action", event.Action,
		"row", event.Row,
		"timestamp", event.Timestamp)

	switch event.Action {
	case amqp.ActionCreated:
		return w.applyCreated(ctx, event)
	case amqp.ActionUpdated:
		return w.applyUpdated(ctx, event)
	case amqp.ActionDeleted:
		return w.applyDeleted(ctx, event)
	default:
		slog.WarnContext(ctx, "Unknown entry event action, discarding", "action", event.Action)
		return nil
	}
}

func (w *MirrorWorker) applyCreated(ctx context.Context, event *amqp.EntryEvent) error {
	e := event.Entry.ToEntry()
	ref, err := w.mirror.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("mirror append: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored new entry", "ref", ref, "brand", e.Brand)
	return nil
}

func (w *MirrorWorker) applyUpdated(ctx context.Context, event *amqp.EntryEvent) error {
	e := event.Entry.ToEntry()
	err := w.mirror.Replace(ctx, event.Row, e)
	if errors.Is(err, sheets.ErrNotFound) {
		// The mirror is behind the source. Appending keeps the record instead
		// of dropping the update; positions re-converge on the next rebuild.
		slog.WarnContext(ctx, "Update for unknown mirror row, appending instead",
			"row", event.Row, "brand", e.Brand)
		if _, err := w.mirror.Append(ctx, e); err != nil {
			return fmt.Errorf("mirror append fallback: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror replace row %d: %w", event.Row, err)
	}
	return nil
}

func (w *MirrorWorker) applyDeleted(ctx context.Context, event *amqp.EntryEvent) error {
	err := w.mirror.Remove(ctx, event.Row)
	if errors.Is(err, sheets.ErrNotFound) {
		// Already gone; deletes are idempotent on the mirror.
		slog.WarnContext(ctx, "Delete for unknown mirror row, ignoring", "row", event.Row)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror remove row %d: %w", event.Row, err)
	}
	return nil
}
