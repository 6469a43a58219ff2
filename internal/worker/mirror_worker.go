// Package worker applies invoice lifecycle events to a secondary store.
package worker

import (
	"context"
	"fmt"
	"sync"

	"invoicer/internal/amqp"
	"invoicer/internal/analytics"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

// MirrorWorker keeps a replica of the invoice history up to date from
// published events, e.g. a Google Sheet fed by a local SQLite editor.
type MirrorWorker struct {
	target records.Store
	logger *applog.Logger

	mu      sync.Mutex
	applied int
}

func NewMirrorWorker(target records.Store, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &MirrorWorker{
		target: target,
		logger: logger.WithComponent(applog.ComponentAMQP),
	}
}

// HandleEvent is an amqp.Handler. Finalized events add the record unless the
// replica already holds the same invoice (number, customer, date and total),
// since numbers alone may repeat. Payment events overwrite the first record
// with that number, as the source history does, adding it when missing.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.InvoiceEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := w.logger.WithInvoice(ev.InvoiceNumber).With(applog.FieldEventType, string(ev.Type))
	logger.InfoContext(ctx, "Processing invoice event")

	c, err := w.target.Load(ctx)
	if err != nil {
		return fmt.Errorf("load replica: %w", err)
	}

	inv := ev.Invoice()
	next, changed := apply(c, ev.Type, inv)
	if !changed {
		logger.DebugContext(ctx, "Replica already up to date")
		return nil
	}
	if err := records.Replace(ctx, w.target, next); err != nil {
		logger.ErrorContext(ctx, "Failed to update replica", applog.FieldError, err)
		return err
	}
	w.applied++
	logger.InfoContext(ctx, "Replica updated", applog.FieldCount, len(next))
	return nil
}

// Applied returns how many events changed the replica.
func (w *MirrorWorker) Applied() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.applied
}

func apply(c core.Collection, t amqp.EventType, inv core.SavedInvoice) (core.Collection, bool) {
	existing, found := analytics.FindInvoice(c, inv.InvoiceNumber)
	switch t {
	case amqp.EventInvoiceFinalized:
		if holds(c, inv) {
			return c, false
		}
		return append(c.Clone(), inv), true
	case amqp.EventPaymentUpdated:
		if !found {
			return append(c.Clone(), inv), true
		}
		if existing.AmountPaid == inv.AmountPaid && existing.PaymentStatus == inv.PaymentStatus {
			return c, false
		}
		return analytics.UpdatePaymentAmount(c, inv.InvoiceNumber, inv.AmountPaid), true
	default:
		return c, false
	}
}

// holds reports whether c already has the finalized invoice, ignoring any
// payment recorded since.
func holds(c core.Collection, inv core.SavedInvoice) bool {
	for _, have := range c {
		if have.InvoiceNumber == inv.InvoiceNumber &&
			have.CustomerName == inv.CustomerName &&
			have.InvoiceDate == inv.InvoiceDate &&
			have.TotalAmount == inv.TotalAmount {
			return true
		}
	}
	return false
}
