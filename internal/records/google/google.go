// Package google stores the invoice history in a Google Sheets tab, one row
// per invoice below a header row.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
)

var _ records.Store = (*Store)(nil)

// DefaultSheetName is used when Options.SheetName is blank.
const DefaultSheetName = "Invoices"

var header = []any{"Invoice #", "Customer Name", "Invoice Date", "Total Amount", "Amount Paid", "Payment Status"}

// Options configures access to the spreadsheet. CredentialsJSON wins over
// CredentialsFile; ClientOptions are appended last and mostly serve tests.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	ClientOptions   []goption.ClientOption
}

// Store implements records.Store on top of the Sheets values API.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *applog.Logger
}

// New creates a Sheets backed store authenticated with a service account.
func New(ctx context.Context, opts Options, logger *applog.Logger) (*Store, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	clientOpts, err := credentialOptions(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, id, opts.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *applog.Logger) *Store {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, logger: logger}
}

func credentialOptions(ctx context.Context, opts Options, logger *applog.Logger) ([]goption.ClientOption, error) {
	// Caller supplied its own transport or auth.
	if len(opts.ClientOptions) > 0 && opts.CredentialsJSON == "" && opts.CredentialsFile == "" {
		return nil, nil
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		logger.InfoContext(ctx, "Reading service account credentials", applog.FieldPath, opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// Load reads every data row below the header.
func (s *Store) Load(ctx context.Context) (core.Collection, error) {
	if s.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:F", s.sheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	c, skipped := parseRows(resp.Values)
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped malformed invoice rows", applog.FieldCount, skipped)
	}
	return c, nil
}

// Save writes the header plus one row per invoice in a single update.
// Rows left over from a longer previous history are overwritten with blanks,
// so a failed write leaves the old history in place.
func (s *Store) Save(ctx context.Context, c core.Collection) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}
	previous, err := s.extent(ctx)
	if err != nil {
		return err
	}

	values := make([][]any, 0, max(len(c)+1, previous))
	values = append(values, header)
	for _, inv := range c {
		values = append(values, toRow(inv))
	}
	for len(values) < previous {
		values = append(values, blankRow())
	}
	rng := fmt.Sprintf("%s!A1:F%d", s.sheet, len(values))
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	s.logger.InfoContext(ctx, "History written to sheet",
		applog.FieldOperation, applog.OpSave,
		applog.FieldCount, len(c))
	return nil
}

// extent returns how many rows the tab currently uses, header included.
func (s *Store) extent(ctx context.Context) (int, error) {
	rng := fmt.Sprintf("%s!A:F", s.sheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return len(resp.Values), nil
}

func blankRow() []any {
	return []any{"", "", "", "", "", ""}
}

func toRow(inv core.SavedInvoice) []any {
	return []any{
		inv.InvoiceNumber,
		inv.CustomerName,
		inv.InvoiceDate,
		core.FormatAmount(inv.TotalAmount),
		core.FormatAmount(inv.AmountPaid),
		inv.PaymentStatus.String(),
	}
}

// parseRows converts sheet rows to invoices. Rows without a number or with
// unreadable amounts are skipped and counted; blank rows are ignored. The
// status column is recomputed, since people edit the sheet by hand.
func parseRows(rows [][]any) (core.Collection, int) {
	out := make(core.Collection, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		if len(cols) < 4 || cols[0] == "" {
			skipped++
			continue
		}
		total, err := strconv.ParseFloat(cols[3], 64)
		if err != nil {
			skipped++
			continue
		}
		var paid float64
		if len(cols) > 4 && cols[4] != "" {
			paid, err = strconv.ParseFloat(cols[4], 64)
			if err != nil {
				skipped++
				continue
			}
		}
		out = append(out, core.NewSavedInvoice(cols[0], cols[1], cols[2], total).WithPayment(paid))
	}
	return out, skipped
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
