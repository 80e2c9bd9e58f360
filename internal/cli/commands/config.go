package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/verixfer/pkg/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a verixfer configuration file without checking any logs,
and print the effective settings after defaults and environment overrides.

Checks:
  - YAML or TOML syntax (.toml files are read as TOML)
  - Output format, worker and batch counts
  - Log level and format
  - Webhook URLs and triggers`,
		Args: cobra.ExactArgs(1),
		RunE: runConfig,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Output:      %s\n", cfg.Output)
	fmt.Fprintf(out, "  Workers:     %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Batch size:  %d\n", cfg.BatchSize)
	fmt.Fprintf(out, "  Log:         %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	if cfg.MetricsFile != "" {
		fmt.Fprintf(out, "  Metrics:     %s\n", cfg.MetricsFile)
	}
	fmt.Fprintf(out, "  Webhooks:    %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(out, "  %d. %s %s [%s, timeout %s, retries %d]\n",
			i+1, name, wh.URL, wh.Trigger, wh.Timeout, wh.RetryCount())
	}

	return nil
}
