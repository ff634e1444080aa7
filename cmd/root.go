package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/config"
	"github.com/sells-group/profile-review/internal/resilience"
	"github.com/sells-group/profile-review/internal/review"
	"github.com/sells-group/profile-review/pkg/jobs"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "profile-review",
	Short: "Submit company research jobs and review their profiles",
	Long:  "Submits company-research jobs to the analysis service, polls them to completion, applies human edits to the resulting profile and finalizes the overrides.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newClient builds a job service client from the loaded config.
func newClient() jobs.Client {
	return jobs.NewClient(
		jobs.WithBaseURL(cfg.API.BaseURL),
		jobs.WithTimeout(cfg.API.Timeout()),
		jobs.WithRateLimit(cfg.API.RatePerSec, cfg.API.RateBurst),
	)
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

func reviewOptions() []review.Option {
	return []review.Option{
		review.WithInterval(cfg.Poll.Interval()),
		review.WithRetry(retryConfig()),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
