package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the job service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		resp, err := newClient().Health(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "health check")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.API.BaseURL, resp.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
