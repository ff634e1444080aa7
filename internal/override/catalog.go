package override

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Kind selects how raw text input is coerced into a profile value.
type Kind int

const (
	// KindText stores the input verbatim.
	KindText Kind = iota
	// KindNumber parses an integer.
	KindNumber
	// KindCommaList splits on commas.
	KindCommaList
	// KindLineList splits on newlines.
	KindLineList
	// KindSocial stores one platform URL inside the socials record.
	KindSocial
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindCommaList:
		return "comma_list"
	case KindLineList:
		return "line_list"
	case KindSocial:
		return "social"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindText, KindNumber, KindCommaList, KindLineList, KindSocial} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return eris.Errorf("override: unknown field kind %q", b)
}

// Section names, in display order.
const (
	SectionBasic      = "Basic information"
	SectionMarket     = "Market & positioning"
	SectionMission    = "Mission & story"
	SectionCompetitor = "Competitor analysis"
	SectionGrowth     = "Growth strategy"
	SectionGoals      = "Goals & challenges"
	SectionPriorities = "Priorities"
	SectionContent    = "Content"
	SectionSocial     = "Social media"
)

// SocialPrefix namespaces social platform keys ("socials.linkedin").
const SocialPrefix = "socials."

// Field describes one editable profile field.
type Field struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Section string `json:"section"`
	Kind    Kind   `json:"kind"`
}

var catalog = []Field{
	{"website", "Website", SectionBasic, KindText},
	{"hq_address", "Headquarters Address", SectionBasic, KindText},
	{"phone", "Phone", SectionBasic, KindText},
	{"industry", "Industry", SectionBasic, KindText},
	{"description", "Description", SectionBasic, KindText},
	{"year_founded", "Year Founded", SectionBasic, KindNumber},
	{"employee_count", "Employee Count", SectionBasic, KindText},
	{"logo_url", "Logo URL", SectionBasic, KindText},
	{"country", "Country", SectionBasic, KindText},
	{"city", "City", SectionBasic, KindText},

	{"target_market", "Target Market", SectionMarket, KindText},
	{"niche", "Niche & Specialization", SectionMarket, KindText},
	{"services_offered", "Services Offered", SectionMarket, KindText},
	{"client_types", "Client Types", SectionMarket, KindText},
	{"main_keywords", "Main Keywords", SectionMarket, KindCommaList},

	{"mission_statement", "Mission Statement", SectionMission, KindText},
	{"why_started", "Why Did You Start Your Business?", SectionMission, KindText},
	{"founding_story", "Founding Story", SectionMission, KindText},
	{"company_values", "Company Values", SectionMission, KindText},

	{"competitors", "Competitors", SectionCompetitor, KindCommaList},
	{"competitor_urls", "Competitor URLs", SectionCompetitor, KindLineList},

	{"customer_acquisition_process", "Customer Acquisition Process", SectionGrowth, KindText},
	{"growth_strategies_that_work", "Growth Strategies That Work", SectionGrowth, KindText},
	{"ineffective_strategies", "Ineffective Strategies", SectionGrowth, KindText},
	{"seo_and_advertising_approach", "SEO & Advertising Approach", SectionGrowth, KindText},

	{"main_business_goals_12_months", "Main Business Goals (12 Months)", SectionGoals, KindText},
	{"seo_ads_visibility_goals", "SEO & Ads Visibility Goals", SectionGoals, KindText},
	{"current_blocking_factors", "Current Blocking Factors", SectionGoals, KindText},

	{"top_3_priority_services", "Top 3 Priority Services", SectionPriorities, KindText},
	{"service_areas_and_regions", "Service Areas & Regions", SectionPriorities, KindText},

	{"content_plan_summary", "Content Plan Summary", SectionContent, KindText},

	{"socials.linkedin", "LinkedIn", SectionSocial, KindSocial},
	{"socials.twitter", "Twitter", SectionSocial, KindSocial},
	{"socials.facebook", "Facebook", SectionSocial, KindSocial},
	{"socials.instagram", "Instagram", SectionSocial, KindSocial},
	{"socials.youtube", "YouTube", SectionSocial, KindSocial},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, f := range catalog {
		idx[f.Key] = i
	}
	return idx
}()

// readOnly keys exist on the profile but can never be edited.
var readOnly = map[string]bool{
	"company_name":         true,
	"official_email":       true,
	"confidence_per_field": true,
	"topic_authority_map":  true,
}

// Fields returns the editable field catalog in display order.
func Fields() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for key.
func Lookup(key string) (Field, bool) {
	i, ok := catalogIndex[key]
	if !ok {
		return Field{}, false
	}
	return catalog[i], true
}

// Position returns the catalog order of key, or -1 when key is not in the
// catalog.
func Position(key string) int {
	if i, ok := catalogIndex[key]; ok {
		return i
	}
	return -1
}

// Sections returns section names in display order.
func Sections() []string {
	return []string{
		SectionBasic,
		SectionMarket,
		SectionMission,
		SectionCompetitor,
		SectionGrowth,
		SectionGoals,
		SectionPriorities,
		SectionContent,
		SectionSocial,
	}
}

// IsReadOnly reports whether key names a profile field that cannot be edited.
func IsReadOnly(key string) bool {
	return readOnly[key]
}

// socialPlatform returns the platform part of a "socials.<platform>" key.
func socialPlatform(key string) string {
	return strings.TrimPrefix(key, SocialPrefix)
}
