package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWritesComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentInvoice, Format: "json", Output: &buf})
	l.WithInvoice("007").Info("saved", FieldCount, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentInvoice {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldInvoiceNumber] != "007" {
		t.Errorf("invoice_number = %v", rec[FieldInvoiceNumber])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component repeated: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: ParseLevel("warn"), Output: &buf})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentCache)
	got := FromContext(NewContext(context.Background(), l))
	if got.Component() != ComponentCache {
		t.Fatalf("component = %q", got.Component())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpSave).
		WithError(errors.New("boom")).
		WithInvoice("001", "Acme", 100, 40, "Partially Paid").
		WithPeriod(2025, 3)
	if f[FieldOperation] != OpSave || f[FieldError] != "boom" || f[FieldStatus] != "Partially Paid" || f[FieldMonth] != 3 {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatalf("nil error should not be recorded")
	}
}
