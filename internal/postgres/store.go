// Package postgres keeps the invoice history in a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

var _ records.Store = (*Store)(nil)

// pgxPool is the subset of *pgxpool.Pool the store needs.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

var invoiceColumns = []string{
	"position", "invoice_number", "customer_name", "invoice_date",
	"total_amount", "amount_paid", "payment_status",
}

const (
	createTable = `CREATE TABLE IF NOT EXISTS invoices (
            position INTEGER PRIMARY KEY,
            invoice_number TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            invoice_date TEXT NOT NULL,
            total_amount DOUBLE PRECISION NOT NULL,
            amount_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
            payment_status TEXT NOT NULL
        )`
	createNumberIndex = `CREATE INDEX IF NOT EXISTS idx_invoices_number ON invoices(invoice_number)`
	selectInvoices    = `SELECT invoice_number, customer_name, invoice_date, total_amount, amount_paid, payment_status
                   FROM invoices ORDER BY position`
	deleteInvoices = `DELETE FROM invoices`
)

// Store implements records.Store on PostgreSQL.
type Store struct {
	pool   pgxPool
	logger *applog.Logger
}

// New connects to dsn and creates the schema when missing.
func New(ctx context.Context, dsn string, logger *applog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if logger == nil {
		logger = applog.Discard()
	}

	s := &Store{pool: pool, logger: logger.WithComponent(applog.ComponentPostgres)}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range []string{createTable, createNumberIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Load returns the history in insertion order, recomputing any stored status
// that disagrees with the amounts.
func (s *Store) Load(ctx context.Context) (core.Collection, error) {
	rows, err := s.pool.Query(ctx, selectInvoices)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	out := core.Collection{}
	for rows.Next() {
		var (
			inv    core.SavedInvoice
			status string
		)
		if err := rows.Scan(&inv.InvoiceNumber, &inv.CustomerName, &inv.InvoiceDate,
			&inv.TotalAmount, &inv.AmountPaid, &status); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.PaymentStatus = core.PaymentStatus(status)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	if n := out.Reconcile(); n > 0 {
		s.logger.WarnContext(ctx, "Recomputed stored payment statuses", applog.FieldCount, n)
	}
	return out, nil
}

// Save replaces the table content inside one transaction using COPY.
func (s *Store) Save(ctx context.Context, c core.Collection) error {
	return s.withinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteInvoices); err != nil {
			return fmt.Errorf("clear invoices: %w", err)
		}
		if len(c) == 0 {
			return nil
		}
		rows := make([][]any, len(c))
		for i, inv := range c {
			rows[i] = []any{
				int32(i + 1), inv.InvoiceNumber, inv.CustomerName, inv.InvoiceDate,
				inv.TotalAmount, inv.AmountPaid, inv.PaymentStatus.String(),
			}
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"invoices"}, invoiceColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy invoices: %w", err)
		}
		if int(n) != len(c) {
			return fmt.Errorf("copy invoices: wrote %d of %d rows", n, len(c))
		}
		return nil
	})
}

func (s *Store) withinTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.WarnContext(ctx, "Rollback failed", applog.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
