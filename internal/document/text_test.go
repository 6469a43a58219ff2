package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invoicer/internal/core"
)

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{1000, "₹1,000"},
		{99999, "₹99,999"},
		{100000, "₹1,00,000"},
		{1234567.4, "₹12,34,567"},
		{123456789, "₹12,34,56,789"},
		{12.5, "₹13"},
		{-1500, "-₹1,500"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.in); got != tc.want {
			t.Errorf("FormatINR(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextExporterWritesDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	d := core.NewDraft("004", time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC))
	d.CustomerName = "Acme Tools"
	d.CustomerAddress = "12 MG Road, Pune"
	d.Items[0].Description = "Bolts"
	d.Items[0].Quantity = 3
	d.Items[0].Rate = 500

	path, err := NewTextExporter(dir, nil).Export(context.Background(), d)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if filepath.Base(path) != "Invoice-004-Acme_Tools.txt" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"Invoice #: 004",
		"2025-03-14",
		"12 MG Road, Pune",
		"Bolts",
		"Total Amount: ₹1,500",
		"Amount in words: One Thousand Five Hundred Only",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q:\n%s", want, text)
		}
	}
}

func TestTextExporterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTextExporter(t.TempDir(), nil).Export(ctx, core.NewDraft("001", time.Now())); err == nil {
		t.Fatal("expected context error")
	}
}
