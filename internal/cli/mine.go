package cli

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:          "mine",
	Short:        "Mine pending records into a new block",
	RunE:         mineCmdF,
	SilenceUsage: true,
}

func init() {
	mineCmd.Flags().Int("max", 0, "Maximum records per block, 0 mines everything pending.")
	RootCmd.AddCommand(mineCmd)
}

func mineCmdF(cmd *cobra.Command, _ []string) error {
	maxBatch, _ := cmd.Flags().GetInt("max")

	spinner, _ := pterm.DefaultSpinner.Start("mining")
	resp, err := clientFromFlags(cmd).mine(context.Background(), maxBatch)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	if resp.Block == nil {
		spinner.Warning(resp.Message)
		return nil
	}
	spinner.Success(resp.Message)

	pterm.DefaultBox.WithTitle("block").Printfln(
		"index: %d\nhash: %s\nnonce: %d\nrecords: %d",
		resp.Block.Index, resp.Block.Hash, resp.Block.Nonce, len(resp.Block.Records))
	return nil
}
