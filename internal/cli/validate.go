package cli

import (
	"context"
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:          "validate",
	Short:        "Run a full chain integrity scan",
	RunE:         validateCmdF,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(validateCmd)
}

func validateCmdF(cmd *cobra.Command, _ []string) error {
	resp, err := clientFromFlags(cmd).validate(context.Background())
	if err != nil {
		return err
	}
	if !resp.Valid {
		pterm.Error.Printfln("chain integrity violated: %s", resp.Error)
		return errors.New("chain is invalid")
	}
	pterm.Success.Println("chain is valid")
	return nil
}
