package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-review/internal/provenance"
	"github.com/sells-group/profile-review/internal/review"
)

var sourcesField string

var sourcesCmd = &cobra.Command{
	Use:   "sources <job-id>",
	Short: "Show the sources behind a job's profile fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		p, err := review.Open(newClient(), args[0], reviewOptions()...)
		if err != nil {
			return err
		}
		defer p.Close()

		if _, err := p.Refresh(cmd.Context()); err != nil {
			return eris.Wrapf(err, "fetch job %s", p.JobID())
		}
		return provenance.Render(cmd.OutOrStdout(), p.Sources().Narrow(sourcesField))
	},
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesField, "field", provenance.AllFields, "field key, or \"all\"")
	rootCmd.AddCommand(sourcesCmd)
}
