package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/wp-inspector/internal/inspector"
)

func newInspectCmd() *cobra.Command {
	var (
		asJSON  bool
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Inspects a single site and prints the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, err := appInstance.GetInspector().Inspect(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return renderReport(out, report, !noColor)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON report")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

// renderReport writes a human-readable summary of report to w.
func renderReport(w io.Writer, report inspector.Report, useColors bool) error {
	good, warn, bad := fmt.Sprint, fmt.Sprint, fmt.Sprint
	if useColors {
		good = color.New(color.FgGreen, color.Bold).SprintFunc()
		warn = color.New(color.FgYellow).SprintFunc()
		bad = color.New(color.FgRed).SprintFunc()
	}

	if !report.IsWordPress {
		_, err := fmt.Fprintf(w, "%s %s\n", bad("✗"), report.Message)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s is built with WordPress\n", good("✓"), report.URL); err != nil {
		return err
	}

	overview := [][]string{{"Site", report.SiteName}}
	if report.ScannedAt != nil {
		overview = append(overview, []string{"Scanned", report.ScannedAt.Format(time.RFC3339)})
	}
	if report.DetectionSignals != nil {
		overview = append(overview, []string{"Signals", strconv.Itoa(report.DetectionSignals.Count())})
	}
	if t := report.Theme; t != nil {
		overview = append(overview,
			[]string{"Theme", t.Name},
			[]string{"Version", t.Version},
			[]string{"Author", t.Author},
		)
		if t.IsChildTheme {
			overview = append(overview, []string{"Parent theme", t.ParentTheme})
		}
	}
	if v := report.Customization; v != nil {
		verdict := warn(v.CategoryLabel)
		if v.IsCustom {
			verdict = good(v.CategoryLabel)
		}
		overview = append(overview,
			[]string{"Customization", verdict},
			[]string{"Score", strconv.Itoa(v.Score)},
			[]string{"Confidence", fmt.Sprintf("%d%%", v.ConfidencePercent)},
		)
	}
	if err := writeTable(w, []string{"Field", "Value"}, overview, tw.AlignLeft); err != nil {
		return err
	}

	if report.Plugins == nil || report.Plugins.Count == 0 {
		_, err := fmt.Fprintln(w, "No plugins detected")
		return err
	}
	rows := make([][]string, 0, len(report.Plugins.List))
	for _, p := range report.Plugins.List {
		version := "-"
		if p.RegistryInfo != nil && p.RegistryInfo.Version != "" {
			version = p.RegistryInfo.Version
		}
		rows = append(rows, []string{p.Slug, p.DisplayName, version, strings.Join(p.DetectedFiles, ", ")})
	}
	if _, err := fmt.Fprintf(w, "Plugins (%d)\n", report.Plugins.Count); err != nil {
		return err
	}
	return writeTable(w, []string{"Slug", "Name", "Version", "Evidence"}, rows, tw.AlignLeft)
}

func writeTable(w io.Writer, headers []string, rows [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
