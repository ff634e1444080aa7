package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/override"
	"github.com/sells-group/profile-review/internal/review"
)

var (
	reviewEdits  string
	reviewSave   bool
	reviewExport string
)

var reviewCmd = &cobra.Command{
	Use:   "review <job-id>",
	Short: "Apply profile edits from a YAML file and optionally finalize them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("client"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var edits []fieldEdit
		if reviewEdits != "" {
			var err error
			if edits, err = loadEdits(reviewEdits); err != nil {
				return err
			}
		}

		p, err := review.Open(newClient(), args[0], reviewOptions()...)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := waitForProfile(ctx, p); err != nil {
			return err
		}
		if err := applyEdits(p, edits); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		formatOverrides(out, p.Overrides())
		if !reviewSave && p.State().Dirty() {
			fmt.Fprintln(out, "Unsaved changes. Rerun with --save to finalize them.")
		}

		if reviewSave {
			res, err := p.Save(ctx)
			if err != nil {
				return eris.Wrap(err, "save overrides")
			}
			if res.Outcome == review.SaveNoChanges {
				fmt.Fprintln(out, "No changes to save.")
			} else {
				fmt.Fprintf(out, "Saved %d override(s).\n", len(res.Overrides))
			}
		}

		if reviewExport != "" {
			path, err := p.Export(ctx, reviewExport)
			if err != nil {
				return eris.Wrap(err, "export")
			}
			fmt.Fprintf(out, "Exported to %s\n", path)
		}
		return nil
	},
}

// waitForProfile polls the page until the job is terminal and checks that a
// profile was produced.
func waitForProfile(ctx context.Context, p *review.Page) error {
	if err := p.Start(ctx); err != nil {
		return eris.Wrap(err, "start polling")
	}
	select {
	case <-p.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s := p.State()
	switch {
	case s.Status == model.JobStatusFailed:
		return eris.Errorf("job %s failed: %s", p.JobID(), s.JobError)
	case !s.Seeded && s.LastError != "":
		return eris.Errorf("job %s: %s", p.JobID(), s.LastError)
	case !s.Seeded:
		return eris.Wrapf(review.ErrNoProfile, "job %s", p.JobID())
	}
	return nil
}

// fieldEdit is one entry of an edits file.
type fieldEdit struct {
	Field string    `yaml:"field"`
	Value editValue `yaml:"value"`
}

// editValue accepts a scalar, a sequence or null. A null or missing value
// clears the field.
type editValue struct {
	text  string
	items []string
	list  bool
}

func (v *editValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = editValue{}
			return nil
		}
		*v = editValue{text: node.Value}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return eris.Errorf("line %d: list items must be scalars", item.Line)
			}
			items = append(items, item.Value)
		}
		*v = editValue{items: items, list: true}
		return nil
	default:
		return eris.Errorf("line %d: value must be a scalar or a list", node.Line)
	}
}

// Raw renders the value as the text a user would type for a field of kind.
func (v editValue) Raw(kind override.Kind) string {
	if !v.list {
		return v.text
	}
	if kind == override.KindLineList {
		return strings.Join(v.items, "\n")
	}
	return strings.Join(v.items, ", ")
}

func loadEdits(path string) ([]fieldEdit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read edits %s", path)
	}
	return parseEdits(data)
}

func parseEdits(data []byte) ([]fieldEdit, error) {
	var edits []fieldEdit
	if err := yaml.Unmarshal(data, &edits); err != nil {
		return nil, eris.Wrap(err, "parse edits")
	}
	for i, e := range edits {
		e.Field = strings.TrimSpace(e.Field)
		if e.Field == "" {
			return nil, eris.Errorf("edit %d: field is required", i+1)
		}
		if _, ok := override.Lookup(e.Field); !ok {
			return nil, eris.Wrapf(override.ErrUnknownField, "edit %d: %s", i+1, e.Field)
		}
		edits[i] = e
	}
	return edits, nil
}

// applyEdits runs each edit through a begin, draft and commit cycle.
func applyEdits(p *review.Page, edits []fieldEdit) error {
	for _, e := range edits {
		f, _ := override.Lookup(e.Field)
		if _, err := p.BeginEdit(e.Field); err != nil {
			return eris.Wrapf(err, "edit %s", e.Field)
		}
		if err := p.UpdateDraft(e.Value.Raw(f.Kind)); err != nil {
			p.CancelEdit()
			return eris.Wrapf(err, "edit %s", e.Field)
		}
		if _, err := p.CommitEdit(); err != nil {
			return eris.Wrapf(err, "edit %s", e.Field)
		}
		zap.L().Debug("edit applied", zap.String("field", e.Field))
	}
	return nil
}

// formatOverrides prints overrides in catalog order.
func formatOverrides(out io.Writer, overrides model.Overrides) {
	if len(overrides) == 0 {
		fmt.Fprintln(out, "No overrides.")
		return
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := catalogPosition(keys[i]), catalogPosition(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tVALUE")
	fmt.Fprintln(w, "-----\t-----")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, overrideText(overrides[k]))
	}
	w.Flush()
}

// catalogPosition places keys outside the catalog, such as the socials
// record, after every catalog field.
func catalogPosition(key string) int {
	if pos := override.Position(key); pos >= 0 {
		return pos
	}
	if strings.HasPrefix(key, "socials") {
		return len(override.Fields())
	}
	return len(override.Fields()) + 1
}

func overrideText(v any) string {
	if v == nil {
		return "(cleared)"
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func init() {
	reviewCmd.Flags().StringVar(&reviewEdits, "edits", "", "YAML file with a list of {field, value} edits")
	reviewCmd.Flags().BoolVar(&reviewSave, "save", false, "finalize the overrides after applying edits")
	reviewCmd.Flags().StringVar(&reviewExport, "export", "", "directory to write the export bundle to")
	rootCmd.AddCommand(reviewCmd)
}
