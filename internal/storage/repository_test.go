package storage

import (
	"context"
	"path/filepath"
	"testing"

	"invoicer/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "invoices.db")
	repo, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestMigrationsApplied(t *testing.T) {
	_, path := newTestRepo(t)
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 1 || dirty {
		t.Fatalf("version = %d dirty=%v, want 1 clean", v, dirty)
	}
	// Running again is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", got)
	}
}

func TestSaveReplacesAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	first := core.Collection{
		core.NewSavedInvoice("010", "Zeta", "2025-03-01", 10),
		core.NewSavedInvoice("002", "Alpha", "2024-01-01", 0.1+0.2),
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(first) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, first)
	}

	second := append(got.Clone(), core.NewSavedInvoice("011", `O"Neil`, "2025-03-02", 99).WithPayment(50))
	second[0] = second[0].WithPayment(10)
	if err := repo.Save(ctx, second); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Load(ctx)
	if !got.Equal(second) {
		t.Fatalf("replace mismatch:\n got %+v\nwant %+v", got, second)
	}

	if err := repo.Save(ctx, core.Collection{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.Load(ctx); len(got) != 0 {
		t.Fatalf("expected cleared history, got %d rows", len(got))
	}
}

func TestSaveRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	keep := core.Collection{core.NewSavedInvoice("001", "Acme", "2025-01-01", 5)}
	if err := repo.Save(ctx, keep); err != nil {
		t.Fatal(err)
	}

	bad := core.Collection{{InvoiceNumber: "002", InvoiceDate: "2025-01-01", PaymentStatus: "Lost"}}
	if err := repo.Save(ctx, bad); err == nil {
		t.Fatal("expected constraint violation")
	}
	got, _ := repo.Load(ctx)
	if !got.Equal(keep) {
		t.Fatalf("failed save must leave history untouched, got %+v", got)
	}
}

func TestLoadRecomputesStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	edited := core.Collection{{InvoiceNumber: "003", CustomerName: "Cipla", InvoiceDate: "2025-01-01",
		TotalAmount: 40, AmountPaid: 40, PaymentStatus: core.Pending}}
	if err := repo.Save(ctx, edited); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].PaymentStatus != core.Received {
		t.Fatalf("status not recomputed: %+v", got)
	}
}
