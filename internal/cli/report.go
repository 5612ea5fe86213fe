package cli

import (
	"context"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

var reportCmd = &cobra.Command{
	Use:          "report <cve-id>",
	Short:        "Stage a manually reported record",
	Args:         cobra.ExactArgs(1),
	RunE:         reportCmdF,
	SilenceUsage: true,
}

func init() {
	reportCmd.Flags().String("description", "", "Vulnerability description (required).")
	reportCmd.Flags().String("severity", "", "LOW, MEDIUM, HIGH or CRITICAL.")
	reportCmd.Flags().Float64("score", -1, "CVSS base score in [0, 10].")
	reportCmd.Flags().String("source", "manual", "Reporting source.")
	reportCmd.Flags().StringSlice("ref", nil, "Reference URL, repeatable.")
	_ = reportCmd.MarkFlagRequired("description")
	RootCmd.AddCommand(reportCmd)
}

func reportCmdF(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	severity, _ := cmd.Flags().GetString("severity")
	score, _ := cmd.Flags().GetFloat64("score")
	source, _ := cmd.Flags().GetString("source")
	refs, _ := cmd.Flags().GetStringSlice("ref")

	record := model.Record{
		ID:          args[0],
		Description: description,
		Severity:    model.Severity(strings.ToUpper(severity)),
		Source:      source,
		ReportedAt:  time.Now().UTC(),
	}
	if score >= 0 {
		record.CVSSScore = &score
	}
	for _, ref := range refs {
		record.References = append(record.References, model.Reference{URL: ref, Source: source})
	}

	if err := clientFromFlags(cmd).report(context.Background(), record); err != nil {
		return err
	}
	pterm.Success.Printfln("%s staged for the next block", record.ID)
	return nil
}
