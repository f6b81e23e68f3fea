package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/auth"
	"github.com/agenda-distribuida/event-agenda/internal/database"
	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/agenda-distribuida/event-agenda/internal/queue"
	"github.com/agenda-distribuida/event-agenda/internal/queue_repository"
	"github.com/agenda-distribuida/event-agenda/internal/repository"
	"github.com/agenda-distribuida/event-agenda/internal/service"
)

func openDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "agenda.db"))
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newAuth(t *testing.T) *auth.Service {
	t.Helper()

	svc, err := auth.NewService(repository.NewCredentialRepository(openDB(t).DB(), zerolog.Nop()), nil, auth.Options{Overwrite: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth.NewService() failed: %v", err)
	}
	return svc
}

func newEvents(t *testing.T) service.EventService {
	t.Helper()

	log := zerolog.Nop()
	writer := queue.New(4, log)
	t.Cleanup(writer.Close)

	repo := queue_repository.NewQueuedEventRepository(repository.NewEventRepository(openDB(t).DB(), log), writer, &log)
	return service.NewEventService(repo, nil, log)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		args    []string
		wantErr error
	}{
		{name: "Valid", input: "A\na\na@b.com\nx\nx\n"},
		{name: "Unmasked", input: "A\na\na@b.com\nx\nx", args: []string{"--insecure-unmask-password"}},
		{name: "Mismatched confirm", input: "A\na\na@b.com\nx\ny\n", wantErr: repository.ErrValidation},
		{name: "Bad email", input: "A\na\nnope\nx\nx\n", wantErr: repository.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newAuth(t)

			var out, errOut bytes.Buffer
			err := Register(ctx, svc, NewConsole(strings.NewReader(tt.input), &out), &errOut, tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
				}
				if _, _, err := svc.Login(ctx, "a@b.com", "x"); !errors.Is(err, repository.ErrNoCredential) {
					t.Errorf("Login() after failed register error = %v, want ErrNoCredential", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() failed: %v", err)
			}
			if !strings.Contains(out.String(), "Registered a <a@b.com>") {
				t.Errorf("output = %q", out.String())
			}
			if _, _, err := svc.Login(ctx, "a@b.com", "x"); err != nil {
				t.Errorf("Login() after register failed: %v", err)
			}
		})
	}
}

func TestRegisterShortInput(t *testing.T) {
	var out, errOut bytes.Buffer
	err := Register(context.Background(), newAuth(t), NewConsole(strings.NewReader("A\n"), &out), &errOut, nil)
	if err == nil {
		t.Error("Register() with truncated input should fail")
	}
}

func TestExportImportICS(t *testing.T) {
	ctx := context.Background()
	src := newEvents(t)
	for _, req := range []*models.EventRequest{
		{Name: "Fair", Date: "2024-05-01"},
		{Name: "Concert", Date: "2024-05-02", Time: "20:00"},
	} {
		if _, err := src.Create(ctx, req); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	file := filepath.Join(t.TempDir(), "events.ics")
	var out, errOut bytes.Buffer
	if err := ExportICS(ctx, src, &out, &errOut, []string{"-o", file}); err != nil {
		t.Fatalf("ExportICS() failed: %v", err)
	}
	if !strings.Contains(errOut.String(), "Exported 2 events") {
		t.Errorf("export output = %q", errOut.String())
	}

	dst := newEvents(t)
	if _, err := dst.Create(ctx, &models.EventRequest{Name: "Existing"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := ImportICS(ctx, dst, &out, &errOut, []string{file}); err != nil {
		t.Fatalf("ImportICS() failed: %v", err)
	}
	all, _ := dst.List(ctx)
	if len(all) != 3 {
		t.Errorf("after additive import: %d events, want 3", len(all))
	}

	if err := ImportICS(ctx, dst, &out, &errOut, []string{"--replace", file}); err != nil {
		t.Fatalf("ImportICS(--replace) failed: %v", err)
	}
	all, _ = dst.List(ctx)
	if len(all) != 2 || all[1].Time != "20:00" {
		t.Errorf("after replacing import: %+v", all)
	}
}

func TestExportICSToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := ExportICS(context.Background(), newEvents(t), &out, &errOut, nil); err != nil {
		t.Fatalf("ExportICS() failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "BEGIN:VCALENDAR") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestImportICSArguments(t *testing.T) {
	ctx := context.Background()
	svc := newEvents(t)
	var out, errOut bytes.Buffer

	if err := ImportICS(ctx, svc, &out, &errOut, nil); err == nil {
		t.Error("ImportICS() without a file should fail")
	}

	missing := filepath.Join(t.TempDir(), "missing.ics")
	if err := ImportICS(ctx, svc, &out, &errOut, []string{missing}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ImportICS() of missing file error = %v, want os.ErrNotExist", err)
	}
}
