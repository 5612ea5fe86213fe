package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show chain height, tip and pending queue",
	RunE:         statusCmdF,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func statusCmdF(cmd *cobra.Command, _ []string) error {
	resp, err := clientFromFlags(cmd).chain(context.Background())
	if err != nil {
		return err
	}

	validity := pterm.LightGreen("valid")
	if !resp.Status.Valid {
		validity = pterm.LightRed("INVALID")
	}
	pterm.DefaultBox.WithTitle("cveledger").Printfln(
		"height: %d\ntip: %s\ndifficulty: %d\npending: %d\nchain: %s",
		resp.Status.Height, resp.Status.TipHash, resp.Status.Difficulty, resp.Status.Pending, validity)

	rows := pterm.TableData{{"index", "time", "records", "hash"}}
	for _, b := range resp.Blocks {
		rows = append(rows, []string{
			strconv.FormatUint(b.Index, 10),
			time.Unix(b.Timestamp, 0).UTC().Format(time.RFC3339),
			strconv.Itoa(b.Records),
			shortHash(b.Hash),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return fmt.Sprintf("%s…%s", h[:8], h[len(h)-8:])
}
