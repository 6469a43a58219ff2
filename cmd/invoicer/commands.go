package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"invoicer/internal/amqp"
	"invoicer/internal/analytics"
	"invoicer/internal/core"
	"invoicer/internal/document"
	applog "invoicer/internal/log"
	"invoicer/internal/services"
	"invoicer/internal/worker"
)

type eventConsumer interface {
	ConsumeEvents(ctx context.Context, handler amqp.Handler) error
}

const barWidth = 30

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func cmdWords(args []string, out io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: invoicer words <amount>")
		return errUsage
	}
	fmt.Fprintln(out, core.ToWords(core.ParseAmount(args[0])))
	return nil
}

func (a *app) invoiceService() *services.InvoiceService {
	return services.NewInvoiceService(
		a.store,
		document.NewTextExporter(a.cfg.ExportDir, a.logger),
		a.events,
		services.InvoiceServiceConfig{RequireUniqueNumbers: a.cfg.RequireUniqueNumbers},
		a.logger,
	)
}

func (a *app) cmdDraft(ctx context.Context, args []string) error {
	fs := newFlagSet("draft", a.out)
	path := fs.String("o", "draft.json", "where to write the draft")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := a.invoiceService().NewDraft(ctx, a.now())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.WriteFile(*path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	fmt.Fprintf(a.out, "Draft %s written to %s\n", d.InvoiceNumber, *path)
	return nil
}

func (a *app) cmdNew(ctx context.Context, args []string) error {
	fs := newFlagSet("new", a.out)
	path := fs.String("draft", "", "draft JSON file (required)")
	number := fs.String("number", "", "override the invoice number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(a.out, "new: -draft is required")
		return errUsage
	}

	d, err := readDraft(*path)
	if err != nil {
		return err
	}
	svc := a.invoiceService()
	if *number != "" {
		d.InvoiceNumber = *number
	}
	if d.InvoiceNumber == "" {
		if d.InvoiceNumber, err = svc.NextNumber(ctx); err != nil {
			return err
		}
	}
	if d.InvoiceDate == "" {
		d.InvoiceDate = core.Today(a.now())
	}

	res, err := svc.Finalize(ctx, d)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Invoice %s: %s\n", d.InvoiceNumber, document.FormatINR(res.Total))
	fmt.Fprintf(a.out, "In words: %s\n", res.Words)
	fmt.Fprintf(a.out, "Document: %s\n", res.Document)
	if !res.Saved {
		fmt.Fprintf(a.out, "Not recorded in history: %v\n", res.SkipReason)
	}
	fmt.Fprintf(a.out, "Next invoice number: %s\n", res.NextNumber)
	return nil
}

func readDraft(path string) (*core.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var d core.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", path, err)
	}
	d.Normalize()
	return &d, nil
}

func (a *app) openAnalytics(ctx context.Context) (*services.AnalyticsService, error) {
	svc := services.NewAnalyticsService(a.store, a.events, a.logger).WithClock(a.now)
	if err := svc.Open(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (a *app) cmdPay(ctx context.Context, args []string) error {
	fs := newFlagSet("pay", a.out)
	number := fs.String("number", "", "invoice number (required)")
	amount := fs.String("amount", "", "total amount paid so far")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *number == "" {
		fmt.Fprintln(a.out, "pay: -number is required")
		return errUsage
	}

	svc, err := a.openAnalytics(ctx)
	if err != nil {
		return err
	}
	inv, err := svc.UpdatePayment(ctx, *number, *amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Invoice %s: paid %s of %s, remaining %s (%s)\n",
		inv.InvoiceNumber,
		document.FormatINR(inv.AmountPaid),
		document.FormatINR(inv.TotalAmount),
		document.FormatINR(inv.Remaining()),
		inv.PaymentStatus)
	return nil
}

// periodFlags registers -year and -month defaulting to the current period.
func (a *app) periodFlags(fs *flag.FlagSet) (*int, *int) {
	now := a.now()
	year := fs.Int("year", now.Year(), "calendar year")
	month := fs.Int("month", int(now.Month()), "calendar month, 1-12")
	return year, month
}

func validMonth(m int) (time.Month, error) {
	if m < 1 || m > 12 {
		return 0, fmt.Errorf("%w: month %d out of range 1-12", errUsage, m)
	}
	return time.Month(m), nil
}

func (a *app) cmdReport(ctx context.Context, args []string) error {
	fs := newFlagSet("report", a.out)
	year, month := a.periodFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := validMonth(*month)
	if err != nil {
		return err
	}

	svc, err := a.openAnalytics(ctx)
	if err != nil {
		return err
	}
	r := svc.Report(*year, m)
	a.logger.DebugContext(ctx, "Report computed",
		applog.NewFields().WithOperation(applog.OpReport).WithPeriod(*year, *month).ToSlice()...)
	return printReport(a.out, r)
}

func printReport(out io.Writer, r analytics.Report) error {
	years := make([]string, len(r.Years))
	for i, y := range r.Years {
		years[i] = fmt.Sprint(y)
	}
	fmt.Fprintf(out, "Years with data: %s\n\n", strings.Join(years, ", "))

	fmt.Fprintf(out, "Monthly sales %d (scale %s)\n", r.Year, document.FormatINR(r.Scale))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tInvoiced\tPaid\t")
	for i, m := range r.Monthly {
		bar := strings.Repeat("#", int(m.Invoiced/r.Scale*barWidth))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			time.Month(i+1).String()[:3],
			document.FormatINR(m.Invoiced),
			document.FormatINR(m.Paid),
			bar)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nYearly totals\n")
	for _, yt := range r.Yearly {
		fmt.Fprintf(out, "  %d  %s\n", yt.Year, document.FormatINR(yt.Total))
	}

	fmt.Fprintf(out, "\nInvoices for %s %d\n", r.Month, r.Year)
	if len(r.Invoices) == 0 {
		fmt.Fprintln(out, "  none")
		return nil
	}
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Invoice #\tCustomer\tDate\tTotal\tPaid\tRemaining\tStatus\t")
	for _, inv := range r.Invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			inv.InvoiceNumber,
			inv.CustomerName,
			inv.InvoiceDate,
			document.FormatINR(inv.TotalAmount),
			document.FormatINR(inv.AmountPaid),
			document.FormatINR(inv.Remaining()),
			inv.PaymentStatus)
	}
	return tw.Flush()
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := newFlagSet("export", a.out)
	year, month := a.periodFlags(fs)
	dir := fs.String("out", a.cfg.ExportDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := validMonth(*month)
	if err != nil {
		return err
	}

	svc, err := a.openAnalytics(ctx)
	if err != nil {
		return err
	}
	name, body, err := svc.ExportCSV(*year, m)
	if errors.Is(err, analytics.ErrNoInvoices) {
		fmt.Fprintf(a.out, "No invoices to export for %s %d.\n", m, *year)
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(*dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	a.logger.InfoContext(ctx, "CSV exported", applog.FieldPath, path)
	fmt.Fprintf(a.out, "Exported %s\n", path)
	return nil
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch", a.out)
	mirror := fs.Bool("mirror", false, "apply events to the configured store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.consumer == nil {
		return errors.New("watch needs a reachable broker: set AMQP_URL")
	}

	handler := func(ctx context.Context, ev *amqp.InvoiceEvent) error {
		fmt.Fprintf(a.out, "%s %s %s total=%s paid=%s %s\n",
			ev.Timestamp.Format(time.RFC3339),
			ev.Type,
			ev.InvoiceNumber,
			core.FormatAmount(ev.TotalAmount),
			core.FormatAmount(ev.AmountPaid),
			ev.PaymentStatus)
		return nil
	}
	if *mirror {
		w := worker.NewMirrorWorker(a.store, a.logger)
		echo := handler
		handler = func(ctx context.Context, ev *amqp.InvoiceEvent) error {
			if err := w.HandleEvent(ctx, ev); err != nil {
				return err
			}
			return echo(ctx, ev)
		}
		a.logger.InfoContext(ctx, "Mirroring invoice events", applog.FieldBackend, a.cfg.DataBackend)
	}

	err := a.consumer.ConsumeEvents(ctx, handler)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
