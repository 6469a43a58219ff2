package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicer/internal/core"
)

// ErrNoInvoices is returned when asked to export an empty period.
var ErrNoInvoices = errors.New("no invoices to export for the selected period")

var csvHeader = []string{
	"Invoice #",
	"Customer Name",
	"Invoice Date",
	"Total Amount",
	"Amount Paid",
	"Amount Remaining",
	"Payment Status",
}

// ExportCSV renders invoices as CSV text, one row per invoice in input order.
//
// Text columns are always wrapped in double quotes and double quotes inside
// the customer name are doubled; amounts are written unquoted. Rows are
// separated by "\n" with no trailing newline.
func ExportCSV(invoices core.Collection) (string, error) {
	if len(invoices) == 0 {
		return "", ErrNoInvoices
	}
	rows := make([]string, 0, len(invoices)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, inv := range invoices {
		rows = append(rows, strings.Join([]string{
			quote(inv.InvoiceNumber),
			quote(strings.ReplaceAll(inv.CustomerName, `"`, `""`)),
			quote(inv.InvoiceDate),
			core.FormatAmount(inv.TotalAmount),
			core.FormatAmount(inv.AmountPaid),
			core.FormatAmount(inv.Remaining()),
			quote(inv.PaymentStatus.String()),
		}, ","))
	}
	return strings.Join(rows, "\n"), nil
}

// ExportFilename is the suggested file name for a period export,
// e.g. "Invoices_2025-03.csv".
func ExportFilename(year int, month time.Month) string {
	return fmt.Sprintf("Invoices_%d-%02d.csv", year, int(month))
}

func quote(s string) string {
	return `"` + s + `"`
}
