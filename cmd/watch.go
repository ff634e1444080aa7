package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/poll"
	"github.com/sells-group/profile-review/internal/resilience"
	"github.com/sells-group/profile-review/pkg/jobs"
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>...",
	Short: "Poll one or more jobs until they finish",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return watchJobs(ctx, cmd.OutOrStdout(), newClient(), args)
	},
}

func watchJobs(ctx context.Context, out io.Writer, client jobs.Client, ids []string) error {
	return watchAll(ctx, out, client, ids, cfg.Poll.Interval(), retryConfig())
}

// syncWriter serializes writes from concurrent watchers.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *syncWriter) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// watchAll polls every id concurrently and prints a line per status change.
// It fails if any job could not be read at all or ended in failure.
func watchAll(ctx context.Context, out io.Writer, client jobs.Client, ids []string, interval time.Duration, retry resilience.RetryConfig) error {
	w := &syncWriter{out: out}
	retry.ShouldRetry = jobs.IsRetryable
	retry.OnRetry = resilience.RetryLogger("jobs", "get")

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			return watchOne(gctx, w, client, id, interval, retry)
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "watch")
	}
	return nil
}

func watchOne(ctx context.Context, w *syncWriter, client jobs.Client, id string, interval time.Duration, retry resilience.RetryConfig) error {
	var (
		lastStatus model.JobStatus
		lastErr    error
	)
	c := poll.New(
		func(ctx context.Context) (*model.Job, error) {
			return resilience.DoVal(ctx, retry, func(ctx context.Context) (*model.Job, error) {
				return client.Get(ctx, id)
			})
		},
		poll.WithInterval(interval),
		poll.WithOnSnapshot(func(job *model.Job) {
			lastErr = nil
			if job.Status == lastStatus {
				return
			}
			lastStatus = job.Status
			w.printf("%s\t%s\n", id, statusLine(job))
		}),
		poll.WithOnError(func(err error) {
			lastErr = err
			zap.L().Warn("watch: fetch failed", zap.String("job_id", id), zap.Error(err))
		}),
	)
	if err := c.Start(ctx); err != nil {
		return eris.Wrapf(err, "start polling %s", id)
	}

	select {
	case <-c.Done():
	case <-ctx.Done():
		c.Stop()
		return ctx.Err()
	}

	last := c.Last()
	zap.L().Debug("watch: polling finished", zap.String("job_id", id), zap.Int("fetches", c.Fetches()))
	switch {
	case last == nil && lastErr != nil:
		return eris.Wrapf(lastErr, "job %s", id)
	case last == nil:
		return eris.Errorf("job %s: no snapshot received", id)
	case last.Status == model.JobStatusFailed:
		return eris.Errorf("job %s failed: %s", id, last.Error)
	}
	return nil
}

// statusLine renders the status of job for watch output.
func statusLine(job *model.Job) string {
	switch {
	case job.Status == model.JobStatusFailed && job.Error != "":
		return fmt.Sprintf("%s: %s", job.Status, job.Error)
	case job.Status.Terminal():
		return string(job.Status)
	default:
		return fmt.Sprintf("%s: %s", job.Status, job.Status.Message())
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
