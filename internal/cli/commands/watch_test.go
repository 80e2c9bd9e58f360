package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	if cmd.Use != "watch <xferlog>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	for _, flag := range []string{"config", "output", "workers", "debounce"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
	if cmd.Flags().Lookup("webhook-url") != nil {
		t.Error("watch should not take webhook flags")
	}
}

func TestRunWatch_MissingFile(t *testing.T) {
	_, _, err := executeCommand(t, NewWatchCommand(), filepath.Join(t.TempDir(), "missing.log"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

type loopHarness struct {
	events chan fsnotify.Event
	errs   chan error
	runs   atomic.Int32
	done   chan struct{}
}

func startLoop(t *testing.T, ctx context.Context, target string, debounce time.Duration) *loopHarness {
	t.Helper()
	h := &loopHarness{
		events: make(chan fsnotify.Event),
		errs:   make(chan error),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		watchLoop(ctx, zap.NewNop(), h.events, h.errs, target, debounce, func() { h.runs.Add(1) })
	}()
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchLoop_DebouncesBurst(t *testing.T) {
	target := writeLog(t, t.TempDir(), "xferlog", validLine)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := startLoop(t, ctx, target, 50*time.Millisecond)
	for i := 0; i < 5; i++ {
		h.events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	}

	waitFor(t, func() bool { return h.runs.Load() == 1 })
	time.Sleep(150 * time.Millisecond)
	if got := h.runs.Load(); got != 1 {
		t.Errorf("rechecks = %d, want 1", got)
	}

	h.events <- fsnotify.Event{Name: target, Op: fsnotify.Create}
	waitFor(t, func() bool { return h.runs.Load() == 2 })

	cancel()
	<-h.done
}

func TestWatchLoop_IgnoresOtherFilesAndOps(t *testing.T) {
	dir := t.TempDir()
	target := writeLog(t, dir, "xferlog", validLine)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := startLoop(t, ctx, target, 10*time.Millisecond)
	h.events <- fsnotify.Event{Name: filepath.Join(dir, "other.log"), Op: fsnotify.Write}
	h.events <- fsnotify.Event{Name: target, Op: fsnotify.Chmod}
	h.errs <- errors.New("overflow")

	time.Sleep(100 * time.Millisecond)
	if got := h.runs.Load(); got != 0 {
		t.Errorf("rechecks = %d, want 0", got)
	}

	cancel()
	<-h.done
}

func TestWatchLoop_SkipsWhileFileMissing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "xferlog")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := startLoop(t, ctx, target, 10*time.Millisecond)
	h.events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	time.Sleep(100 * time.Millisecond)
	if got := h.runs.Load(); got != 0 {
		t.Fatalf("rechecks = %d, want 0 while file is missing", got)
	}

	writeLog(t, dir, "xferlog", validLine)
	h.events <- fsnotify.Event{Name: target, Op: fsnotify.Create}
	waitFor(t, func() bool { return h.runs.Load() == 1 })

	cancel()
	<-h.done
}

func TestWatchLoop_StopsWhenEventsClose(t *testing.T) {
	h := startLoop(t, context.Background(), "/var/log/xferlog", time.Second)
	close(h.events)

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watchLoop did not return after events closed")
	}
}
