package provenance

import (
	"strings"
	"testing"
)

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{1, BandHigh},
		{0.8, BandHigh},
		{0.79, BandMedium},
		{0.6, BandMedium},
		{0.59, BandLow},
		{0, BandLow},
	}
	for _, tt := range tests {
		if got := ScoreBand(tt.score); got != tt.want {
			t.Errorf("ScoreBand(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := map[float64]string{
		0.85: "85%",
		1:    "100%",
		0:    "0%",
	}
	for score, want := range tests {
		if got := FormatScore(score); got != want {
			t.Errorf("FormatScore(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	short := "short snippet"
	if got := Truncate(short, SnippetLimit); got != short {
		t.Errorf("Truncate(short) = %q", got)
	}

	exact := strings.Repeat("x", SnippetLimit)
	if got := Truncate(exact, SnippetLimit); got != exact {
		t.Error("text at the limit must not be cut")
	}

	long := strings.Repeat("é", SnippetLimit+1)
	got := Truncate(long, SnippetLimit)
	if want := strings.Repeat("é", SnippetLimit) + "..."; got != want {
		t.Errorf("Truncate(long) has %d bytes, want %d", len(got), len(want))
	}
	if !Truncated(long) || Truncated(exact) {
		t.Error("Truncated disagrees with the limit")
	}
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"https://acme.com/contact":      "acme.com",
		"http://www.acme.com:8080/x?y=": "www.acme.com",
		"not a url":                     "not a url",
	}
	for in, want := range tests {
		if got := Hostname(in); got != want {
			t.Errorf("Hostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`<script>alert(1)</script><p>Call <b>us</b></p>`)
	if got != "Call us" {
		t.Errorf("Sanitize = %q", got)
	}
}

func TestSanitize_KeepsPlainText(t *testing.T) {
	got := Sanitize(`AT&T's "best" <b>deal</b> 5 < 6`)
	want := `AT&T's "best" deal 5 < 6`
	if got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"phone":                         "Phone",
		"hq_address":                    "Hq Address",
		"socials.linkedin":              "Linkedin",
		"main_business_goals_12_months": "Main Business Goals 12 Months",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
