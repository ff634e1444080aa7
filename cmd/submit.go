package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/model"
)

var (
	submitCompany     string
	submitEmail       string
	submitDomain      string
	submitCompetitors string
	submitLocations   string
	submitWatch       bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a company research job",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newClient()
		job, err := client.Create(ctx, buildJobRequest())
		if err != nil {
			return eris.Wrap(err, "submit job")
		}
		zap.L().Info("job submitted", zap.String("job_id", job.ID), zap.String("company", job.CompanyName))
		formatJob(cmd.OutOrStdout(), job)

		if !submitWatch {
			return nil
		}
		return watchJobs(ctx, cmd.OutOrStdout(), client, []string{job.ID})
	},
}

// buildJobRequest turns the submit flags into a request. Comma-separated
// lists are split and trimmed.
func buildJobRequest() model.JobRequest {
	return model.JobRequest{
		CompanyName:       submitCompany,
		OfficialEmail:     submitEmail,
		Domain:            submitDomain,
		CompetitorDomains: model.SplitList(submitCompetitors, ","),
		MainLocations:     model.SplitList(submitLocations, ","),
	}
}

// formatJob writes a one-job summary.
func formatJob(out io.Writer, job *model.Job) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", job.ID)
	fmt.Fprintf(w, "Company\t%s\n", job.CompanyName)
	fmt.Fprintf(w, "Email\t%s\n", job.OfficialEmail)
	fmt.Fprintf(w, "Status\t%s\n", job.Status)
	if !job.Status.Terminal() {
		fmt.Fprintf(w, "Progress\t%s\n", job.Status.Message())
	}
	if job.Status == model.JobStatusFailed && job.Error != "" {
		fmt.Fprintf(w, "Error\t%s\n", job.Error)
	}
	if !job.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created\t%s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func init() {
	submitCmd.Flags().StringVar(&submitCompany, "company", "", "company name (required)")
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "official company email (required)")
	submitCmd.Flags().StringVar(&submitDomain, "domain", "", "company website domain")
	submitCmd.Flags().StringVar(&submitCompetitors, "competitors", "", "comma-separated competitor domains")
	submitCmd.Flags().StringVar(&submitLocations, "locations", "", "comma-separated main locations")
	submitCmd.Flags().BoolVar(&submitWatch, "watch", false, "poll the job until it finishes")
	_ = submitCmd.MarkFlagRequired("company")
	_ = submitCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(submitCmd)
}
