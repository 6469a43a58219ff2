package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"invoicer/internal/analytics"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

// ErrInvoiceNotFound is returned by UpdatePayment for an unknown number.
var ErrInvoiceNotFound = errors.New("invoice not found")

// AnalyticsService is one analytics session: the history is loaded by Open
// and every query works on that snapshot. Payment edits are written through
// to the store.
type AnalyticsService struct {
	store  records.Store
	events EventPublisher
	logger *applog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot core.Collection
}

// NewAnalyticsService wires the service. events may be nil.
func NewAnalyticsService(store records.Store, events EventPublisher, logger *applog.Logger) *AnalyticsService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AnalyticsService{
		store:  store,
		events: events,
		logger: logger.WithComponent(applog.ComponentAnalytics),
		now:    time.Now,
	}
}

// WithClock replaces the clock used to decide the current year.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	if now != nil {
		s.now = now
	}
	return s
}

// Open loads the history snapshot.
func (s *AnalyticsService) Open(ctx context.Context) error {
	c, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	s.mu.Lock()
	s.snapshot = c
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Analytics session opened", applog.FieldCount, len(c))
	return nil
}

// Snapshot returns a copy of the loaded history.
func (s *AnalyticsService) Snapshot() core.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Report summarizes the snapshot for the selected period.
func (s *AnalyticsService) Report(year int, month time.Month) analytics.Report {
	return analytics.Summarize(s.Snapshot(), year, month, s.now().Year())
}

// UpdatePayment records a new paid amount for the invoice number and saves
// the whole history. raw is parsed permissively. The updated record is
// returned.
func (s *AnalyticsService) UpdatePayment(ctx context.Context, number, raw string) (core.SavedInvoice, error) {
	s.mu.Lock()
	current := s.snapshot
	if _, ok := analytics.FindInvoice(current, number); !ok {
		s.mu.Unlock()
		return core.SavedInvoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, number)
	}
	updated := analytics.UpdatePayment(current, number, raw)
	if err := records.Replace(ctx, s.store, updated); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to save payment update",
			applog.FieldInvoiceNumber, number, applog.FieldError, err)
		return core.SavedInvoice{}, err
	}
	s.snapshot = updated
	s.mu.Unlock()

	inv, _ := analytics.FindInvoice(updated, number)
	s.logger.InfoContext(ctx, "Payment updated",
		applog.NewFields().
			WithOperation(applog.OpPayment).
			WithInvoice(inv.InvoiceNumber, inv.CustomerName, inv.TotalAmount, inv.AmountPaid, inv.PaymentStatus.String()).
			ToSlice()...)

	if s.events != nil {
		if err := s.events.PublishPaymentUpdated(ctx, inv); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish payment event",
				applog.FieldInvoiceNumber, number, applog.FieldError, err)
		}
	}
	return inv, nil
}

// ExportCSV renders the period's invoices. It returns analytics.ErrNoInvoices
// when the period is empty.
func (s *AnalyticsService) ExportCSV(year int, month time.Month) (filename, body string, err error) {
	invoices := analytics.FilterByPeriod(s.Snapshot(), year, month)
	body, err = analytics.ExportCSV(invoices)
	if err != nil {
		return "", "", err
	}
	s.logger.Info("CSV export prepared",
		applog.NewFields().WithOperation(applog.OpExport).WithPeriod(year, int(month)).ToSlice()...)
	return analytics.ExportFilename(year, month), body, nil
}
