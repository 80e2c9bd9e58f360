package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/verixfer/pkg/config"
	"github.com/ccollicutt/verixfer/pkg/parser"
	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

// DefaultDiagnoseLimit is the number of invalid lines explained by default.
const DefaultDiagnoseLimit = 5

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Verbose    bool
	Limit      int
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <xferlog>",
		Short: "Explain why lines of an xferlog are invalid",
		Long: `Explain why lines of an xferlog are invalid.

For the first invalid lines this command shows every token the line was
split into, which field rejected it, and what that field accepts. It also
reports file-level problems such as a missing final newline.

With --config the configuration file and its webhooks are checked too.

Example:
  verixfer diagnose /var/log/xferlog
  verixfer diagnose -n 20 -v /var/log/xferlog  # more lines, full token tables`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Also check this configuration file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", DefaultDiagnoseLimit, "Number of invalid lines to explain")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, logPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	if opts.ConfigFile != "" {
		cfg, result := checkConfigParseable(ctx, opts.ConfigFile)
		results = append(results, result)
		if cfg != nil {
			results = append(results, checkWebhooks(ctx, cfg, opts)...)
		}
	}

	logResults, err := checkLogFile(ctx, logPath, opts)
	if err != nil {
		return err
	}
	results = append(results, logResults...)

	if printDiagnostics(w, results, opts) > 0 {
		ExitCode = 1
	}
	return nil
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config File",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		if errors.Is(err, os.ErrNotExist) {
			result.Suggests = []string{"Check the file path is correct"}
		} else {
			result.Suggests = []string{"Run 'verixfer config " + path + "' after fixing the file"}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Loaded %s", path)
	result.Details = []string{
		fmt.Sprintf("Output: %s", cfg.Output),
		fmt.Sprintf("Workers: %d", cfg.Workers),
	}
	return cfg, result
}

// lineStats summarises a scan of the whole file.
type lineStats struct {
	lines        int
	invalid      int
	crlf         int
	noTerminator bool
	byField      map[xferlog.Field]int
	explained    []DiagnosticResult
}

func checkLogFile(ctx context.Context, path string, opts *DiagnoseOptions) ([]DiagnosticResult, error) {
	result := DiagnosticResult{Check: "Log File"}

	src, err := parser.OpenFile(path)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		switch {
		case errors.Is(err, os.ErrNotExist):
			result.Suggests = []string{"Check the file path is correct"}
		case errors.Is(err, parser.ErrNotRegular):
			result.Suggests = []string{"Pass the log file itself, not a directory or device"}
		case errors.Is(err, os.ErrPermission):
			result.Suggests = []string{"Check file permissions"}
		}
		return []DiagnosticResult{result}, nil
	}

	stats, err := scanLines(ctx, src, opts)
	closeErr := src.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d line(s) read", stats.lines)
	results := []DiagnosticResult{result}

	format := DiagnosticResult{Check: "Line Format"}
	if stats.invalid == 0 {
		format.Status = "ok"
		format.Message = "Every line is a valid xferlog record"
	} else {
		format.Status = "error"
		format.Message = fmt.Sprintf("%d of %d line(s) invalid", stats.invalid, stats.lines)
		for f := xferlog.FieldWeekday; f <= xferlog.FieldTerminator; f++ {
			if n := stats.byField[f]; n > 0 {
				format.Details = append(format.Details, fmt.Sprintf("%s: %d", fieldLabel(f), n))
			}
		}
		if stats.invalid > len(stats.explained) {
			format.Suggests = []string{fmt.Sprintf("Showing %d line(s); use --limit to see more", len(stats.explained))}
		}
	}
	results = append(results, format)

	if stats.crlf > 0 {
		results = append(results, DiagnosticResult{
			Check:   "Line Endings",
			Status:  "warning",
			Message: fmt.Sprintf("%d line(s) end in CRLF", stats.crlf),
			Details: []string{"CRLF endings are accepted and ignored"},
		})
	}
	if stats.noTerminator {
		results = append(results, DiagnosticResult{
			Check:    "Final Newline",
			Status:   "warning",
			Message:  "The last line has no terminating newline",
			Suggests: []string{"The writer may have been interrupted mid-record"},
		})
	}

	return append(results, stats.explained...), nil
}

func scanLines(ctx context.Context, src parser.LineSource, opts *DiagnoseOptions) (*lineStats, error) {
	stats := &lineStats{byField: make(map[xferlog.Field]int)}

	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return nil, err
		}

		stats.lines++
		stats.noTerminator = !strings.HasSuffix(line.Raw, "\n")
		if strings.HasSuffix(line.Raw, "\r\n") {
			stats.crlf++
		}

		r := xferlog.Validate(line.Raw)
		if r.OK() {
			continue
		}
		stats.invalid++
		stats.byField[r.Field()]++
		if len(stats.explained) < opts.Limit {
			stats.explained = append(stats.explained, explainLine(line, r, opts))
		}
	}
}

// explainLine describes why one line failed.
func explainLine(line *parser.LogLine, r xferlog.Result, opts *DiagnoseOptions) DiagnosticResult {
	f := r.Field()
	tokens := xferlog.Tokens(line.Raw)
	spec, _ := xferlog.Spec(f)

	result := DiagnosticResult{
		Check:  fmt.Sprintf("Line %d", line.LineNum),
		Status: "error",
	}

	present := int(f) <= len(tokens)
	switch {
	case f == xferlog.FieldTerminator:
		result.Message = fmt.Sprintf("%s: unexpected %q after the last field", fieldLabel(f), tokens[len(tokens)-1].Text)
	case !present:
		result.Message = fmt.Sprintf("%s: missing, want %s", fieldLabel(f), spec.Description)
	default:
		result.Message = fmt.Sprintf("%s: got %q, want %s", fieldLabel(f), tokens[f-1].Text, spec.Description)
	}

	// Tokens up to the failing field; -v shows the rest.
	last := min(int(f), len(tokens))
	if opts.Verbose {
		last = len(tokens)
	}
	for _, tok := range tokens[:last] {
		status := "ok"
		if tok.Field == f {
			status = "FAIL"
		} else if tok.Field > f {
			status = "-"
		}
		result.Details = append(result.Details,
			fmt.Sprintf("%2d %-14s %-4s %q", int(tok.Field), tok.Field.Name(), status, truncate(tok.Text, 40)))
	}

	result.Suggests = hintsFor(f, tokens, present)
	return result
}

func hintsFor(f xferlog.Field, tokens []xferlog.Token, present bool) []string {
	if len(tokens) == 0 {
		return []string{"Blank line: every xferlog record has 19 fields"}
	}
	if !present {
		return []string{fmt.Sprintf("The line ends after field %d; the record is truncated", len(tokens))}
	}

	text := tokens[f-1].Text
	switch f {
	case xferlog.FieldWeekday, xferlog.FieldMonth:
		if len(text) == 3 && xferlog.CheckField(f, strings.ToUpper(text[:1])+strings.ToLower(text[1:])) {
			return []string{"Names are case-sensitive: write Mon, Jan"}
		}
		return []string{"Use three-letter English abbreviations"}
	case xferlog.FieldHour, xferlog.FieldMinute, xferlog.FieldSecond:
		if len(text) != 2 {
			return []string{"Time fields must be exactly two digits (HH:MM:SS)"}
		}
	case xferlog.FieldYear:
		return []string{"The year must be a four-digit number between 1980 and 2100"}
	case xferlog.FieldTransferTime, xferlog.FieldFileSize:
		return []string{"Must be a non-negative whole number"}
	case xferlog.FieldFilename, xferlog.FieldTransferType, xferlog.FieldTerminator:
		return []string{"Filenames containing spaces shift every later field"}
	case xferlog.FieldAuthMethod:
		return []string{"0 means no authentication, 1 means RFC 931"}
	}
	return nil
}

// printDiagnostics writes the results and returns the number of errors.
func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== verixfer Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nThe log has invalid records or could not be checked.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nThe log is valid but has warnings.")
	default:
		fmt.Fprintln(w, "\nThe log looks good!")
	}
	return errCount
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", webhookName(wh)),
		}

		switch {
		case wh.Token == "" && wh.Trigger != config.WebhookTriggerNever && strings.HasPrefix(wh.URL, "http://"):
			result.Status = "warning"
			result.Message = "Plain HTTP endpoint without a token"
		case wh.Trigger == config.WebhookTriggerNever:
			result.Status = "warning"
			result.Message = "Trigger is never; this webhook is disabled"
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}

		result.Details = []string{
			fmt.Sprintf("URL: %s", wh.URL),
			fmt.Sprintf("Timeout: %s", wh.Timeout),
			fmt.Sprintf("Retries: %d", wh.RetryCount()),
		}
		if wh.Token != "" {
			result.Details = append(result.Details, "Token: configured")
		}

		results = append(results, result)
	}

	// Connectivity is only probed on request.
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response (even 4xx/5xx) means the server is reachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func fieldLabel(f xferlog.Field) string {
	return fmt.Sprintf("field %d (%s)", int(f), f.Name())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
