// Package document renders finalized invoices to files.
package document

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

// TextExporter writes a plain-text invoice into a directory.
type TextExporter struct {
	dir    string
	logger *applog.Logger
}

func NewTextExporter(dir string, logger *applog.Logger) *TextExporter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &TextExporter{dir: dir, logger: logger.WithComponent(applog.ComponentDocument)}
}

// Export writes <DocumentName>.txt and returns its path.
func (e *TextExporter) Export(ctx context.Context, d *core.Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	path := filepath.Join(e.dir, core.DocumentName(d.InvoiceNumber, d.CustomerName)+".txt")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := Render(f, d); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("render document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}

	e.logger.InfoContext(ctx, "Invoice document written",
		applog.FieldInvoiceNumber, d.InvoiceNumber,
		applog.FieldPath, path)
	return path, nil
}

// Render writes the invoice layout to w.
func Render(w io.Writer, d *core.Draft) error {
	var b strings.Builder
	fmt.Fprintf(&b, "INVOICE\n\n")
	fmt.Fprintf(&b, "Invoice #: %s\n", d.InvoiceNumber)
	fmt.Fprintf(&b, "Date:      %s\n\n", d.InvoiceDate)
	fmt.Fprintf(&b, "Bill To:\n%s\n", d.CustomerName)
	if addr := strings.TrimSpace(d.CustomerAddress); addr != "" {
		b.WriteString(addr)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDescription\tQty\tRate\tAmount\t")
	for i, it := range d.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			i+1,
			it.Description,
			core.FormatAmount(it.Quantity),
			FormatINR(it.Rate),
			FormatINR(core.LineAmount(it).InexactFloat64()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(&b, "\nTotal Amount: %s\n", FormatINR(d.Total()))
	fmt.Fprintf(&b, "Amount in words: %s\n\n", d.AmountInWords())
	b.WriteString("Thank you for your business!\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatINR formats amount as whole rupees with Indian digit grouping,
// e.g. 1234567.4 -> "₹12,34,567".
func FormatINR(amount float64) string {
	n := math.Round(amount)
	neg := n < 0
	digits := strconv.FormatFloat(math.Abs(n), 'f', 0, 64)

	var groups []string
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		groups = append(groups, tail)
	} else {
		groups = []string{digits}
	}

	out := "₹" + strings.Join(groups, ",")
	if neg {
		out = "-" + out
	}
	return out
}
