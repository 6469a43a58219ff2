package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"invoicer/internal/core"
)

// fakeSheet emulates the values endpoints the store uses. Writes overwrite
// cells in place, like the real API, and reads drop trailing blank rows.
type fakeSheet struct {
	mu        sync.Mutex
	rows      [][]any
	puts      int
	putStatus int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-id/values/") {
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPut:
		if f.putStatus != 0 {
			http.Error(w, "backend error", f.putStatus)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			http.Error(w, "missing valueInputOption", http.StatusBadRequest)
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i, row := range body.Values {
			if i < len(f.rows) {
				f.rows[i] = row
			} else {
				f.rows = append(f.rows, row)
			}
		}
		f.puts++
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(body.Values)})
	case r.Method == http.MethodGet:
		data := f.used()
		if !strings.HasSuffix(r.URL.Path, "!A:F") {
			// A2:F: data rows only.
			if len(data) > 0 {
				data = data[1:]
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": data})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeSheet) used() [][]any {
	n := len(f.rows)
	for n > 0 && rowIsBlank(f.rows[n-1]) {
		n--
	}
	return f.rows[:n]
}

func rowIsBlank(row []any) bool {
	for _, v := range row {
		if s, ok := v.(string); !ok || s != "" {
			return false
		}
	}
	return true
}

func newTestStore(t *testing.T, f *fakeSheet) *Store {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	f := &fakeSheet{}
	s := newTestStore(t, f)

	empty, err := s.Load(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty sheet should load empty, got %v, %v", empty, err)
	}

	want := core.Collection{
		core.NewSavedInvoice("001", "Acme", "2025-01-10", 1000),
		core.NewSavedInvoice("002", "Birla", "2025-02-01", 250.75).WithPayment(100),
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if f.puts != 1 {
		t.Fatalf("expected one write, got %d", f.puts)
	}
	if got := f.rows[0][0]; got != "Invoice #" {
		t.Fatalf("header not written, first cell %v", got)
	}
	if got := f.rows[2][3]; got != "250.75" {
		t.Fatalf("amount written as %v", got)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveShrinksHistoryInOneWrite(t *testing.T) {
	ctx := context.Background()
	f := &fakeSheet{}
	s := newTestStore(t, f)

	old := core.Collection{
		core.NewSavedInvoice("001", "Acme", "2025-01-10", 1000),
		core.NewSavedInvoice("002", "Birla", "2025-02-01", 250),
		core.NewSavedInvoice("003", "Cipla", "2025-02-03", 75),
	}
	if err := s.Save(ctx, old); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f.putStatus = http.StatusInternalServerError
	if err := s.Save(ctx, old[:1]); err == nil {
		t.Fatal("expected write error")
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(old) {
		t.Fatalf("failed write lost history: %+v", got)
	}

	f.putStatus = 0
	if err := s.Save(ctx, old[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(f.rows) != 4 || !rowIsBlank(f.rows[2]) || !rowIsBlank(f.rows[3]) {
		t.Fatalf("stale rows not blanked: %v", f.rows)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(old[:1]) {
		t.Fatalf("Load after shrink = %+v", got)
	}
}

func TestParseRows(t *testing.T) {
	rows := [][]any{
		{"005", "Eicher", "2025-03-14", 500.0, 600.0, "Pending"},
		{"006", "Godrej", "2025-03-15", "42"},
		{"", "blank number", "2025-03-15", "1"},
		{"007", "bad amount", "2025-03-15", "abc"},
		{"008"},
		{"", "", "", "", "", ""},
	}
	got, skipped := parseRows(rows)
	if skipped != 3 {
		t.Fatalf("skipped = %d, want 3", skipped)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d rows, want 2", len(got))
	}
	if got[0].PaymentStatus != core.Received {
		t.Errorf("status should be recomputed, got %q", got[0].PaymentStatus)
	}
	if got[1].AmountPaid != 0 || got[1].PaymentStatus != core.Pending {
		t.Errorf("missing paid column should mean unpaid: %+v", got[1])
	}
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Options{}, nil); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing id error, got %v", err)
	}
	if _, err := New(ctx, Options{SpreadsheetID: "x"}, nil); err == nil || !strings.Contains(err.Error(), "service account") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
	if _, err := New(ctx, Options{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, nil); err == nil {
		t.Fatalf("expected file read error")
	}
}

func TestUninitializedService(t *testing.T) {
	s := NewWithService(nil, "id", "", nil)
	if s.sheet != DefaultSheetName {
		t.Fatalf("sheet = %q", s.sheet)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error without service")
	}
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error without service")
	}
}
