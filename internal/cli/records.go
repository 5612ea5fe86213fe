package cli

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List committed records",
	RunE:         listCmdF,
	SilenceUsage: true,
}

var pendingCmd = &cobra.Command{
	Use:          "pending",
	Short:        "List records staged for the next block",
	RunE:         pendingCmdF,
	SilenceUsage: true,
}

var getCmd = &cobra.Command{
	Use:          "get <cve-id>",
	Short:        "Show one committed record",
	Args:         cobra.ExactArgs(1),
	RunE:         getCmdF,
	SilenceUsage: true,
}

func init() {
	listCmd.Flags().String("severity", "", "Filter by severity (LOW, MEDIUM, HIGH, CRITICAL).")
	listCmd.Flags().String("source", "", "Filter by reporting source.")
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(pendingCmd)
	RootCmd.AddCommand(getCmd)
}

func listCmdF(cmd *cobra.Command, _ []string) error {
	severity, _ := cmd.Flags().GetString("severity")
	source, _ := cmd.Flags().GetString("source")

	resp, err := clientFromFlags(cmd).list(context.Background(), severity, source)
	if err != nil {
		return err
	}
	renderRecords(resp.CVEs)
	pterm.Info.Printfln("%d committed record(s)", resp.Count)
	return nil
}

func pendingCmdF(cmd *cobra.Command, _ []string) error {
	resp, err := clientFromFlags(cmd).pending(context.Background())
	if err != nil {
		return err
	}
	renderRecords(resp.CVEs)
	pterm.Info.Printfln("%d pending record(s)", resp.Count)
	return nil
}

func getCmdF(cmd *cobra.Command, args []string) error {
	record, err := clientFromFlags(cmd).get(context.Background(), args[0])
	if err != nil {
		return err
	}

	score := "n/a"
	if record.CVSSScore != nil {
		score = strconv.FormatFloat(*record.CVSSScore, 'f', 1, 64)
	}
	pterm.DefaultBox.WithTitle(record.ID).Printfln(
		"severity: %s\ncvss: %s\nsource: %s\nreported: %s\n\n%s",
		severityColor(record.Severity), score, record.Source,
		record.ReportedAt.Format("2006-01-02"), record.Description)
	for _, ref := range record.References {
		pterm.Println("  - " + ref.URL)
	}
	return nil
}

func renderRecords(records []model.Record) {
	rows := pterm.TableData{{"cve", "severity", "cvss", "source", "description"}}
	for _, r := range records {
		score := ""
		if r.CVSSScore != nil {
			score = strconv.FormatFloat(*r.CVSSScore, 'f', 1, 64)
		}
		rows = append(rows, []string{r.ID, severityColor(r.Severity), score, r.Source, truncate(r.Description, 60)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return pterm.LightRed(string(s))
	case model.SeverityHigh:
		return pterm.Red(string(s))
	case model.SeverityMedium:
		return pterm.Yellow(string(s))
	case model.SeverityLow:
		return pterm.Green(string(s))
	default:
		return string(s)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
