package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/agenda-distribuida/event-agenda/internal/service"
)

// ImportICS handles the import-ics subcommand.
func ImportICS(ctx context.Context, svc service.EventService, stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("import-ics", flag.ContinueOnError)
	fs.SetOutput(stderr)
	replace := fs.Bool("replace", false, "Replace every stored event instead of adding to them")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: agenda import-ics [OPTIONS] <file.ics>\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("import-ics needs exactly one file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open calendar: %w", err)
	}
	defer f.Close()

	imported, err := svc.ImportICS(ctx, f, *replace)
	if err != nil {
		return err
	}

	verb := "Added"
	if *replace {
		verb = "Replaced event table with"
	}
	fmt.Fprintf(stdout, "%s %d events from %s\n", verb, len(imported), fs.Arg(0))
	return nil
}

// ExportICS handles the export-ics subcommand. Without -o the calendar is
// written to stdout.
func ExportICS(ctx context.Context, svc service.EventService, stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("export-ics", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Write the calendar to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *output == "" {
		_, err := svc.ExportICS(ctx, stdout)
		return err
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *output, err)
	}
	n, err := svc.ExportICS(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Exported %d events to %s\n", n, *output)
	return nil
}
