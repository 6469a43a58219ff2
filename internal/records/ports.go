// Package records defines the persistence port for the invoice history and
// the helpers every backend shares.
package records

import (
	"context"
	"errors"
	"fmt"

	"invoicer/internal/core"
)

// ErrDuplicateInvoiceNumber is returned by AppendUnique when the history
// already holds a record with the same number.
var ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")

// Ports for outbound adapters.
type (
	// Store persists the whole invoice history as one ordered collection.
	// Load returns an empty collection when nothing was stored yet.
	// Save atomically replaces the stored collection.
	Store interface {
		Load(ctx context.Context) (core.Collection, error)
		Save(ctx context.Context, c core.Collection) error
	}

	// Closer is implemented by stores holding connections or files.
	Closer interface {
		Close() error
	}
)

// Append loads the history, adds inv at the end and saves it back.
func Append(ctx context.Context, s Store, inv core.SavedInvoice) (core.Collection, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	c = append(c.Clone(), inv)
	if err := s.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return c, nil
}

// AppendUnique behaves like Append but refuses a number already in use.
func AppendUnique(ctx context.Context, s Store, inv core.SavedInvoice) (core.Collection, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for _, existing := range c {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, inv.InvoiceNumber)
		}
	}
	c = append(c.Clone(), inv)
	if err := s.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return c, nil
}

// Replace saves c as the full history.
func Replace(ctx context.Context, s Store, c core.Collection) error {
	if err := s.Save(ctx, c.Clone()); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Close releases s when it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
