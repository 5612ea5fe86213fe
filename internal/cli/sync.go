package cli

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:          "sync",
	Short:        "Pull recent records from the upstream feed",
	RunE:         syncCmdF,
	SilenceUsage: true,
}

var searchCmd = &cobra.Command{
	Use:          "search <cve-id>",
	Short:        "Look one id up in the upstream feed and stage it if new",
	Args:         cobra.ExactArgs(1),
	RunE:         searchCmdF,
	SilenceUsage: true,
}

func init() {
	syncCmd.Flags().Int("days", 0, "How many days back to fetch, server default when 0.")
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(searchCmd)
}

func syncCmdF(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("days")

	spinner, _ := pterm.DefaultSpinner.Start("syncing from upstream")
	report, err := clientFromFlags(cmd).sync(context.Background(), days)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("sync complete")

	pterm.DefaultBox.WithTitle("sync").Printfln(
		"fetched: %d\nadded: %d\nduplicates: %d\ninvalid: %d",
		report.Fetched, report.Added, report.Duplicates, report.Invalid)
	return nil
}

func searchCmdF(cmd *cobra.Command, args []string) error {
	resp, err := clientFromFlags(cmd).search(context.Background(), args[0])
	if err != nil {
		return err
	}

	if resp.Staged {
		pterm.Success.Printfln("%s found upstream and staged", resp.CVE.ID)
	} else {
		pterm.Info.Printfln("%s found upstream, already known to the ledger", resp.CVE.ID)
	}
	pterm.DefaultBox.WithTitle(resp.CVE.ID).Printfln(
		"severity: %s\nsource: %s\n\n%s",
		severityColor(resp.CVE.Severity), resp.CVE.Source, resp.CVE.Description)
	return nil
}
