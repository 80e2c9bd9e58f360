package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/verixfer/pkg/checker"
	"github.com/ccollicutt/verixfer/pkg/config"
	"github.com/ccollicutt/verixfer/pkg/logger"
	"github.com/ccollicutt/verixfer/pkg/metrics"
	"github.com/ccollicutt/verixfer/pkg/output"
	"github.com/ccollicutt/verixfer/pkg/parser"
	"github.com/ccollicutt/verixfer/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// maxWebhookFindings caps the findings carried in a webhook payload.
const maxWebhookFindings = 100

// CheckOptions holds command-line options for the check command.
type CheckOptions struct {
	ConfigFile  string
	Output      string
	Workers     int
	Verbose     bool
	Quiet       bool
	MetricsFile string

	// Webhook options
	WebhookURLs    []string
	WebhookToken   string
	WebhookTrigger string
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <xferlog>...",
		Short: "Check xferlog files for malformed lines",
		Long: `Check one or more xferlog transfer logs line by line.

Every line that does not follow the 19-field xferlog format is printed as

  <line>-<field>: <original line>

where <field> is the first field (1-20) that failed. Valid lines print
nothing. With more than one file each line is prefixed with its path.
Glob patterns and gzip-compressed logs are accepted.

Exit codes:
  0 - Every line is valid
  1 - Invalid lines found
  2 - Usage, configuration or I/O error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	addRunFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	// Webhook flags
	cmd.Flags().StringSliceVar(&opts.WebhookURLs, "webhook-url", nil, "Webhook endpoint URL (can be repeated)")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnInvalid), "When to fire webhook (on_invalid|always|never)")

	return cmd
}

// addRunFlags registers the flags shared by check and watch.
func addRunFlags(cmd *cobra.Command, opts *CheckOptions) {
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Configuration file (YAML or TOML)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultOutput, "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", config.DefaultWorkers, "Number of validation workers")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Print a summary to stderr after the findings")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no findings")
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(ctx, cmd, opts)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, logger.LogFormat(cfg.Log.Format))
	defer func() { _ = log.Sync() }()

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}

	run := &checkRun{
		cfg:    cfg,
		opts:   opts,
		log:    log,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	report, err := run.execute(ctx, files)
	if err != nil {
		return err
	}

	if report.HasInvalid() {
		ExitCode = 1
	}
	return nil
}

// resolveConfig loads the configuration and applies explicitly set flags on top.
func resolveConfig(ctx context.Context, cmd *cobra.Command, opts *CheckOptions) (*config.Config, error) {
	cfg, err := config.Resolve(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if flags.Changed("workers") {
		if opts.Workers < 1 {
			return nil, fmt.Errorf("--workers must be >= 1, got %d", opts.Workers)
		}
		cfg.Workers = opts.Workers
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
	}

	for _, u := range opts.WebhookURLs {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     u,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		})
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// checkRun checks a set of files once and reports the result.
type checkRun struct {
	cfg    *config.Config
	opts   *CheckOptions
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func (r *checkRun) execute(ctx context.Context, files []string) (*output.Report, error) {
	out := bufio.NewWriter(r.stdout)

	formatter, err := newFormatter(r.cfg.Output, out, output.FormatOptions{
		Verbose:       r.opts.Verbose,
		Quiet:         r.opts.Quiet,
		ShowSource:    len(files) > 1,
		SummaryWriter: r.stderr,
	})
	if err != nil {
		return nil, err
	}

	var sink checker.Sink = formatter
	var rec *output.Recorder
	if hasActiveWebhooks(r.cfg.Webhooks) {
		rec = output.NewRecorder(maxWebhookFindings)
		sink = checker.MultiSink(formatter, rec)
	}

	var col *metrics.Collector
	if r.cfg.MetricsFile != "" {
		col = metrics.NewCollector()
	}

	chk := checker.New(
		checker.WithWorkers(r.cfg.Workers),
		checker.WithBatchSize(r.cfg.BatchSize),
		checker.WithLogger(r.log),
		checker.WithMetrics(col),
	)

	total := &checker.Summary{}
	for _, path := range files {
		sum, err := checkFile(ctx, chk, path, sink)
		if err != nil {
			// Findings already reported stay visible.
			return nil, errors.Join(err, out.Flush())
		}
		total.Merge(sum)
	}

	if err := out.Flush(); err != nil {
		return nil, fmt.Errorf("writing findings: %w", err)
	}

	report := output.NewReport(total, rec)
	if err := formatter.WriteSummary(ctx, report); err != nil {
		return nil, fmt.Errorf("formatting summary: %w", err)
	}
	if err := out.Flush(); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	if r.cfg.MetricsFile != "" {
		if err := col.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Warn("writing metrics file failed", zap.String("path", r.cfg.MetricsFile), zap.Error(err))
		}
	}

	// Webhook errors are logged but don't fail the check.
	sendWebhooks(ctx, r.log, r.cfg.Webhooks, report)

	return report, nil
}

// checkFile checks a single file. A failure to close the file fails the run.
func checkFile(ctx context.Context, chk *checker.Checker, path string, sink checker.Sink) (*checker.Summary, error) {
	src, err := parser.OpenFile(path)
	if err != nil {
		return nil, err
	}

	sum, err := chk.Check(ctx, src, sink)
	closeErr := src.Close()
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}
	return sum, nil
}

func newFormatter(format string, w io.Writer, opts output.FormatOptions) (output.Formatter, error) {
	switch format {
	case "text":
		return output.NewTextFormatter(w, opts), nil
	case "json":
		return output.NewJSONFormatter(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}

func hasActiveWebhooks(webhooks []config.WebhookConfig) bool {
	for _, wh := range webhooks {
		if wh.Trigger != config.WebhookTriggerNever {
			return true
		}
	}
	return false
}

// sendWebhooks sends the report to every webhook whose trigger matches.
func sendWebhooks(ctx context.Context, log *zap.Logger, webhooks []config.WebhookConfig, report *output.Report) {
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasInvalid()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
			Retries: wh.RetryCount(),
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			log.Info("webhook sent",
				zap.String("webhook", name),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempts", resp.Attempts),
				zap.Duration("duration", resp.Duration),
			)
		} else {
			log.Warn("webhook failed",
				zap.String("webhook", name),
				zap.Int("attempts", resp.Attempts),
				zap.Error(resp.Error),
			)
		}
	}
}

// shouldFireWebhook determines if a webhook should fire based on trigger and findings.
func shouldFireWebhook(trigger config.WebhookTrigger, hasInvalid bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasInvalid
	}
}
