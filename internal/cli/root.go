// Package cli implements the cvectl command line client for the ledger API.
package cli

import "github.com/spf13/cobra"

var RootCmd = &cobra.Command{
	Use:   "cvectl",
	Short: "Client for the CVE ledger API",
}

func init() {
	RootCmd.PersistentFlags().StringP("addr", "a", "http://localhost:5000", "Base URL of the ledger API.")
}

func Run(args []string) error {
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func clientFromFlags(cmd *cobra.Command) *apiClient {
	addr, _ := cmd.Flags().GetString("addr")
	return newAPIClient(addr)
}
