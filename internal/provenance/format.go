package provenance

import (
	"fmt"
	"html"
	"io"
	"math"
	"net/url"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SnippetLimit is the number of characters of a snippet shown before it is
// cut off.
const SnippetLimit = 200

// Band buckets a score for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ScoreBand returns high for scores >= 0.8, medium for >= 0.6, low otherwise.
func ScoreBand(score float64) Band {
	switch {
	case score >= 0.8:
		return BandHigh
	case score >= 0.6:
		return BandMedium
	default:
		return BandLow
	}
}

// FormatScore renders a [0,1] score as a whole percentage.
func FormatScore(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

// Truncate cuts text after limit characters and appends "...".
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + "..."
}

// Truncated reports whether text is longer than the snippet limit, meaning
// the reader should follow the source for the full text.
func Truncated(text string) bool {
	return utf8.RuneCountInString(text) > SnippetLimit
}

// Hostname returns the host of a source URL, or the raw string when it does
// not parse.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

var strict = bluemonday.StrictPolicy()

// Sanitize strips all markup from a scraped snippet and returns plain text.
func Sanitize(snippet string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(snippet)))
}

// Label turns a field key into a heading: "socials.linkedin" -> "Linkedin",
// "hq_address" -> "Hq Address".
func Label(key string) string {
	key = strings.TrimPrefix(key, "socials.")
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// Render writes g as plain text.
func Render(w io.Writer, g Group) error {
	if _, err := fmt.Fprintln(w, g.Title); err != nil {
		return err
	}
	if g.Empty() {
		_, err := fmt.Fprintln(w, "  No sources available")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ev := range g.Fields {
		conf := "unscored"
		if ev.Confidence != nil {
			conf = fmt.Sprintf("%s confidence", FormatScore(*ev.Confidence))
		}
		_, _ = fmt.Fprintf(tw, "\n%s\t(%s)\n", ev.Label, conf)
		if !ev.HasSources() {
			_, _ = fmt.Fprintln(tw, "  No sources found for this field")
			continue
		}
		for _, s := range ev.Sources {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", Hostname(s.URL), FormatScore(s.Score), ScoreBand(s.Score))
			snippet := Sanitize(s.Snippet)
			if snippet != "" {
				_, _ = fmt.Fprintf(tw, "    %s\n", Truncate(snippet, SnippetLimit))
			}
			if Truncated(snippet) {
				_, _ = fmt.Fprintf(tw, "    Read more at %s\n", s.URL)
			}
		}
	}
	return tw.Flush()
}
