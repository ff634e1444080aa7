package review

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/resilience"
	"github.com/sells-group/profile-review/pkg/jobs"
)

// ExportFilename returns the artifact name for a company:
// "<company>-profile.json", or "company-profile.json" when the name is empty.
// Path separators, reserved characters and control characters become "_".
func ExportFilename(company string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(company))
	name = strings.Trim(name, ".")
	if name == "" {
		name = "company"
	}
	return name + "-profile.json"
}

// ExportBundle fetches the export bundle with the read retry policy.
func (p *Page) ExportBundle(ctx context.Context) (*model.ExportBundle, error) {
	cfg := p.retry
	cfg.ShouldRetry = jobs.IsRetryable
	cfg.OnRetry = resilience.RetryLogger("jobs", "export")
	bundle, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.ExportBundle, error) {
		return p.client.Export(ctx, p.jobID)
	})
	if err != nil {
		return nil, eris.Wrap(err, "review: export")
	}
	return bundle, nil
}

// Export writes the export bundle as indented JSON into dir and returns the
// written path. It never touches the job or the working copy.
func (p *Page) Export(ctx context.Context, dir string) (string, error) {
	bundle, err := p.ExportBundle(ctx)
	if err != nil {
		return "", err
	}

	data, err := MarshalBundle(bundle)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "review: create export dir %s", dir)
	}

	company := bundle.Profile.CompanyName
	if company == "" {
		if job := p.Job(); job != nil {
			company = job.CompanyName
		}
	}
	path := filepath.Join(dir, ExportFilename(company))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "review: write %s", path)
	}

	p.log.Info("review: exported profile", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// MarshalBundle renders a bundle the way it is written to disk.
func MarshalBundle(bundle *model.ExportBundle) ([]byte, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "review: encode export")
	}
	return append(data, '\n'), nil
}
