package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/agenda-distribuida/event-agenda/internal/auth"
	"github.com/agenda-distribuida/event-agenda/internal/models"
)

// Register handles the register subcommand. It prompts for the user's
// details and stores them as the single credential.
func Register(ctx context.Context, svc *auth.Service, console *Console, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	insecureUnmask := fs.Bool("insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: agenda register [OPTIONS]\n\n")
		fmt.Fprintf(stderr, "Registers the single user of this agenda (bcrypt-hashed password).\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(stderr, "  DB_PATH               Path to the SQLite database\n")
		fmt.Fprintf(stderr, "  REGISTRATION_POLICY   overwrite (default) or reject\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		req models.RegisterRequest
		err error
	)
	if req.DisplayName, err = console.Line("Display name:     "); err != nil {
		return err
	}
	if req.Username, err = console.Line("Username:         "); err != nil {
		return err
	}
	if req.Email, err = console.Line("Email:            "); err != nil {
		return err
	}

	if *insecureUnmask {
		fmt.Fprintf(stderr, "WARNING: Password will be visible on screen!\n")
	}
	if req.Password, err = console.Password("Enter password:   ", *insecureUnmask); err != nil {
		return err
	}
	if req.Confirm, err = console.Password("Confirm password: ", *insecureUnmask); err != nil {
		return err
	}

	cred, err := svc.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(console.out, "Registered %s <%s>\n", cred.Username, cred.Email)
	return nil
}
