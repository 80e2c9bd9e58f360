package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/verixfer/pkg/logger"
)

// DefaultDebounce is the quiet period after a write before the log is rechecked.
const DefaultDebounce = 250 * time.Millisecond

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	CheckOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <xferlog>",
		Short: "Recheck an xferlog every time it changes",
		Long: `Check an xferlog once, then check it again whenever the file is
written or recreated, until interrupted.

Each pass prints the invalid lines of the whole file in the same format as
the check command. The exit code reflects the last completed pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	addRunFlags(cmd, &opts.CheckOptions)
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "Wait this long after the last change before rechecking")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(ctx, cmd, &opts.CheckOptions)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, logger.LogFormat(cfg.Log.Format))
	defer func() { _ = log.Sync() }()

	path := filepath.Clean(args[0])
	run := &checkRun{
		cfg:    cfg,
		opts:   &opts.CheckOptions,
		log:    log,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	pass := func() error {
		report, err := run.execute(ctx, []string{path})
		if err != nil {
			return err
		}
		ExitCode = 0
		if report.HasInvalid() {
			ExitCode = 1
		}
		return nil
	}

	// The first pass must succeed; later failures are logged and retried on the next change.
	if err := pass(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so that rotation (rename + create) is seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	log.Info("watching", zap.String("path", path), zap.Duration("debounce", opts.Debounce))

	watchLoop(ctx, log, watcher.Events, watcher.Errors, path, opts.Debounce, func() {
		if err := pass(); err != nil {
			log.Warn("check failed", zap.String("path", path), zap.Error(err))
		}
	})
	return nil
}

// watchLoop calls recheck once per burst of changes to target, after the
// burst has been quiet for debounce. It returns when ctx is done or a
// channel is closed.
func watchLoop(ctx context.Context, log *zap.Logger, events <-chan fsnotify.Event, errs <-chan error,
	target string, debounce time.Duration, recheck func()) {
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				log.Debug("change detected", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
				fire = time.After(debounce)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			if _, err := os.Stat(target); err != nil {
				log.Debug("skipping recheck", zap.Error(err))
				continue
			}
			recheck()
		}
	}
}
