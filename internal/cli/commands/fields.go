package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

type fieldRow struct {
	Field       int    `json:"field"`
	Name        string `json:"name"`
	Delimiter   string `json:"delimiter"`
	Description string `json:"description"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Print the xferlog field table",
		Long: `Print the 20 field positions of an xferlog line, the number reported
after the line number for an invalid line, and what each position accepts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text|json)")
	return cmd
}

func runFields(cmd *cobra.Command, format string) error {
	specs := xferlog.Fields()
	rows := make([]fieldRow, len(specs))
	for i, s := range specs {
		rows[i] = fieldRow{
			Field:       int(s.Field),
			Name:        s.Name,
			Delimiter:   s.Delim.String(),
			Description: s.Description,
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "text":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tNAME\tENDS AT\tACCEPTS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Field, r.Name, r.Delimiter, r.Description)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}
