package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"invoicer/internal/cli"
	"invoicer/internal/config"
	applog "invoicer/internal/log"
	"invoicer/internal/records"
	"invoicer/internal/services"
)

const usage = `Usage: invoicer <command> [flags]

Commands:
  draft   write an empty draft numbered after the last invoice
  new     finalize a draft: write the document and record it
  pay     record the amount paid for an invoice
  report  show monthly and yearly sales
  export  write the invoices of a month as CSV
  words   spell out an amount
  watch   consume invoice events, optionally mirroring them into the store
`

var errUsage = errors.New("invalid usage")

// app carries everything the commands need. Tests build it directly.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
	out    io.Writer
	store  records.Store
	events services.EventPublisher

	// consumer is set only when AMQP is configured and reachable.
	consumer eventConsumer
	now      func() time.Time
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	// words needs neither configuration nor storage.
	if cmd == "words" {
		return cmdWords(rest, out)
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)

	ctx, _ := cli.GracefulShutdown(logger, 10*time.Second, nil)

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err)
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Cleanup failed", applog.FieldError, err)
		}
	}()

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    out,
		store:  res.Store,
		now:    time.Now,
	}
	if res.Events != nil {
		a.events = res.Events
		a.consumer = res.Events
	}
	return a.dispatch(ctx, cmd, rest)
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "draft":
		return a.cmdDraft(ctx, args)
	case "new":
		return a.cmdNew(ctx, args)
	case "pay":
		return a.cmdPay(ctx, args)
	case "report":
		return a.cmdReport(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "watch":
		return a.cmdWatch(ctx, args)
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}
