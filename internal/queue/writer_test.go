package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSubmitReturnsApplyResult(t *testing.T) {
	w := New(4, zerolog.Nop())
	defer w.Close()

	want := errors.New("write failed")
	tests := []struct {
		name    string
		apply   func(context.Context) error
		wantErr error
	}{
		{name: "Success", apply: func(context.Context) error { return nil }, wantErr: nil},
		{name: "Failure", apply: func(context.Context) error { return want }, wantErr: want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.Submit(context.Background(), Command{Name: tt.name, Apply: tt.apply})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := w.Applied(); got != 2 {
		t.Errorf("Applied() = %d, want 2", got)
	}
}

func TestCommandsNeverOverlap(t *testing.T) {
	w := New(8, zerolog.Nop())
	defer w.Close()

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		order   []int
	)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := w.Submit(context.Background(), Command{
				Name: "step",
				Apply: func(context.Context) error {
					mu.Lock()
					running++
					if running > maxSeen {
						maxSeen = running
					}
					order = append(order, i)
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					running--
					mu.Unlock()
					return nil
				},
			})
			if err != nil {
				t.Errorf("Submit() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("observed %d commands running at once, want 1", maxSeen)
	}
	if len(order) != n {
		t.Errorf("applied %d commands, want %d", len(order), n)
	}
}

func TestProposePreservesOrder(t *testing.T) {
	w := New(16, zerolog.Nop())
	defer w.Close()

	var got []int
	var results []<-chan error
	for i := 0; i < 10; i++ {
		i := i
		ch, err := w.Propose(context.Background(), Command{
			Name:  "append",
			Apply: func(context.Context) error { got = append(got, i); return nil },
		})
		if err != nil {
			t.Fatalf("Propose() failed: %v", err)
		}
		results = append(results, ch)
	}
	for _, ch := range results {
		if err := <-ch; err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("apply order = %v, want ascending", got)
		}
	}
}

func TestCloseDrainsAndRejects(t *testing.T) {
	w := New(4, zerolog.Nop())

	release := make(chan struct{})
	first, err := w.Propose(context.Background(), Command{
		Name:  "blocker",
		Apply: func(context.Context) error { <-release; return nil },
	})
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	applied := false
	second, err := w.Propose(context.Background(), Command{
		Name:  "queued",
		Apply: func(context.Context) error { applied = true; return nil },
	})
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()
	close(release)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return")
	}

	if err := <-first; err != nil {
		t.Errorf("first command error = %v", err)
	}
	if err := <-second; err != nil {
		t.Errorf("second command error = %v", err)
	}
	if !applied {
		t.Error("command accepted before Close was not applied")
	}

	_, err = w.Propose(context.Background(), Command{Name: "late", Apply: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Propose() after Close error = %v, want ErrClosed", err)
	}

	// Close is safe to call twice.
	w.Close()
}

func TestCanceledCommandIsSkipped(t *testing.T) {
	w := New(4, zerolog.Nop())
	defer w.Close()

	release := make(chan struct{})
	blocker, err := w.Propose(context.Background(), Command{
		Name:  "blocker",
		Apply: func(context.Context) error { <-release; return nil },
	})
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	skipped, err := w.Propose(ctx, Command{
		Name:  "skipped",
		Apply: func(context.Context) error { ran = true; return nil },
	})
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	cancel()
	close(release)

	<-blocker
	if err := <-skipped; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled command error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("canceled command was applied")
	}
}

func TestPanicBecomesError(t *testing.T) {
	w := New(1, zerolog.Nop())
	defer w.Close()

	err := w.Submit(context.Background(), Command{
		Name:  "explode",
		Apply: func(context.Context) error { panic("boom") },
	})
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("Submit() error = %v, want panic error", err)
	}

	if err := w.Submit(context.Background(), Command{Name: "after", Apply: func(context.Context) error { return nil }}); err != nil {
		t.Errorf("writer stopped after panic: %v", err)
	}
}

func TestProposeRequiresApply(t *testing.T) {
	w := New(1, zerolog.Nop())
	defer w.Close()

	if _, err := w.Propose(context.Background(), Command{Name: "empty"}); err == nil {
		t.Error("Propose() without Apply should fail")
	}
}
