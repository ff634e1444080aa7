package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/profile-review/internal/review"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <job-id>",
	Short: "Download a job's export bundle as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		dir := exportDir
		if dir == "" {
			dir = cfg.Export.Dir
		}

		p, err := review.Open(newClient(), args[0], reviewOptions()...)
		if err != nil {
			return err
		}
		defer p.Close()

		path, err := p.Export(cmd.Context(), dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}
