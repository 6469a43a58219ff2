package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

type (
	// Exporter renders a finalized draft to a document and returns where it went.
	Exporter interface {
		Export(ctx context.Context, d *core.Draft) (string, error)
	}

	// EventPublisher announces invoice lifecycle changes.
	EventPublisher interface {
		PublishInvoiceFinalized(ctx context.Context, inv core.SavedInvoice) error
		PublishPaymentUpdated(ctx context.Context, inv core.SavedInvoice) error
	}
)

// FinalizeResult describes what Finalize did with a draft.
type FinalizeResult struct {
	Total    float64
	Words    string
	Document string

	// Saved is false when the draft had no customer or a zero total;
	// SkipReason then holds core.ErrEmptyCustomer or core.ErrZeroTotal.
	Saved      bool
	SkipReason error
	Record     core.SavedInvoice
	NextNumber string
}

// InvoiceServiceConfig holds optional behaviour switches.
type InvoiceServiceConfig struct {
	RequireUniqueNumbers bool
}

// InvoiceService orchestrates the finalize flow: document, history, event.
type InvoiceService struct {
	store    records.Store
	exporter Exporter
	events   EventPublisher
	config   InvoiceServiceConfig
	logger   *applog.Logger
}

// NewInvoiceService wires the service. events may be nil.
func NewInvoiceService(store records.Store, exporter Exporter, events EventPublisher, config InvoiceServiceConfig, logger *applog.Logger) *InvoiceService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &InvoiceService{
		store:    store,
		exporter: exporter,
		events:   events,
		config:   config,
		logger:   logger.WithComponent(applog.ComponentInvoice),
	}
}

// Finalize exports the draft and records it in the history.
//
// A failed export returns the error with nothing appended. After a
// successful export the record is appended once, the event is published
// best effort and the next invoice number is suggested.
func (s *InvoiceService) Finalize(ctx context.Context, d *core.Draft) (FinalizeResult, error) {
	if d == nil {
		return FinalizeResult{}, errors.New("finalize: nil draft")
	}
	d.Normalize()

	res := FinalizeResult{
		Total: d.Total(),
		Words: d.AmountInWords(),
	}
	logger := s.logger.WithInvoice(d.InvoiceNumber)

	path, err := s.exporter.Export(ctx, d)
	if err != nil {
		logger.ErrorContext(ctx, "Document export failed", applog.FieldError, err)
		return res, fmt.Errorf("export document: %w", err)
	}
	res.Document = path
	res.NextNumber = core.NextInvoiceNumber(d.InvoiceNumber)

	if reason := d.Saveable(); reason != nil {
		logger.InfoContext(ctx, "Invoice exported without a history record", "reason", reason.Error())
		res.SkipReason = reason
		return res, nil
	}

	rec := d.Record()
	appendFn := records.Append
	if s.config.RequireUniqueNumbers {
		appendFn = records.AppendUnique
	}
	if _, err := appendFn(ctx, s.store, rec); err != nil {
		logger.ErrorContext(ctx, "Failed to save invoice record", applog.FieldError, err)
		return res, fmt.Errorf("save invoice: %w", err)
	}
	res.Saved = true
	res.Record = rec

	logger.InfoContext(ctx, "Invoice finalized",
		applog.NewFields().
			WithOperation(applog.OpFinalize).
			WithInvoice(rec.InvoiceNumber, rec.CustomerName, rec.TotalAmount, rec.AmountPaid, rec.PaymentStatus.String()).
			ToSlice()...)

	if err := s.publishFinalized(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "Failed to publish invoice event", applog.FieldError, err)
	}

	return res, nil
}

// NextNumber suggests the number for a new draft from the stored history.
func (s *InvoiceService) NextNumber(ctx context.Context) (string, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	return core.SuggestNextNumber(c), nil
}

// NewDraft starts a draft numbered after the last saved invoice.
func (s *InvoiceService) NewDraft(ctx context.Context, today time.Time) (*core.Draft, error) {
	n, err := s.NextNumber(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewDraft(n, today), nil
}

func (s *InvoiceService) publishFinalized(ctx context.Context, inv core.SavedInvoice) error {
	if s.events == nil {
		s.logger.DebugContext(ctx, "Event publisher not available, skipping invoice event")
		return nil
	}
	return s.events.PublishInvoiceFinalized(ctx, inv)
}
