// Package storage keeps the invoice history in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

var _ records.Store = (*SQLiteRepository)(nil)

const (
	selectInvoices = `SELECT invoice_number, customer_name, invoice_date, total_amount, amount_paid, payment_status
FROM invoices ORDER BY position`
	insertInvoice = `INSERT INTO invoices
(position, invoice_number, customer_name, invoice_date, total_amount, amount_paid, payment_status)
VALUES (?, ?, ?, ?, ?, ?, ?)`
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the history in insertion order, recomputing any stored status
// that disagrees with the amounts.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Collection, error) {
	rows, err := r.db.QueryContext(ctx, selectInvoices)
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
		r.logger.WarnContext(ctx, "Recomputed stored payment statuses", applog.FieldCount, n)
	}
	return out, nil
}

// Save replaces the stored history in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, c core.Collection) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM invoices`); err != nil {
		return fmt.Errorf("clear invoices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertInvoice)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, inv := range c {
		if _, err = stmt.ExecContext(ctx, i+1, inv.InvoiceNumber, inv.CustomerName, inv.InvoiceDate,
			inv.TotalAmount, inv.AmountPaid, inv.PaymentStatus.String()); err != nil {
			return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.InfoContext(ctx, "History saved to SQLite",
		applog.FieldOperation, applog.OpSave,
		applog.FieldCount, len(c))
	return nil
}
