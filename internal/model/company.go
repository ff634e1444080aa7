package model

import (
	"maps"
	"slices"
)

// Socials holds social profile URLs keyed by platform (linkedin, twitter, ...).
type Socials map[string]string

// CompanyProfile is the reconciled business-intelligence record for a company.
// Every field except the identity pair is optional and omitted when absent.
type CompanyProfile struct {
	CompanyName   string `json:"company_name"`
	OfficialEmail string `json:"official_email"`

	Website          string `json:"website,omitempty"`
	HQAddress        string `json:"hq_address,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Industry         string `json:"industry,omitempty"`
	Description      string `json:"description,omitempty"`
	YearFounded      *int   `json:"year_founded,omitempty"`
	EmployeeCount    string `json:"employee_count,omitempty"`
	LogoURL          string `json:"logo_url,omitempty"`
	Country          string `json:"country,omitempty"`
	City             string `json:"city,omitempty"`
	TargetMarket     string `json:"target_market,omitempty"`
	Niche            string `json:"niche,omitempty"`
	ServicesOffered  string `json:"services_offered,omitempty"`
	ClientTypes      string `json:"client_types,omitempty"`
	MissionStatement string `json:"mission_statement,omitempty"`
	FoundingStory    string `json:"founding_story,omitempty"`
	WhyStarted       string `json:"why_started,omitempty"`
	CompanyValues    string `json:"company_values,omitempty"`

	MainKeywords   []string `json:"main_keywords,omitempty"`
	Competitors    []string `json:"competitors,omitempty"`
	CompetitorURLs []string `json:"competitor_urls,omitempty"`

	CustomerAcquisitionProcess string `json:"customer_acquisition_process,omitempty"`
	GrowthStrategiesThatWork   string `json:"growth_strategies_that_work,omitempty"`
	IneffectiveStrategies      string `json:"ineffective_strategies,omitempty"`
	SEOAndAdvertisingApproach  string `json:"seo_and_advertising_approach,omitempty"`

	MainBusinessGoals12Months string `json:"main_business_goals_12_months,omitempty"`
	SEOAdsVisibilityGoals     string `json:"seo_ads_visibility_goals,omitempty"`
	CurrentBlockingFactors    string `json:"current_blocking_factors,omitempty"`

	Top3PriorityServices   string `json:"top_3_priority_services,omitempty"`
	ServiceAreasAndRegions string `json:"service_areas_and_regions,omitempty"`

	TopicAuthorityMap  *TopicAuthorityMap `json:"topic_authority_map,omitempty"`
	ContentPlanSummary string             `json:"content_plan_summary,omitempty"`

	Socials            Socials            `json:"socials,omitempty"`
	ConfidencePerField map[string]float64 `json:"confidence_per_field,omitempty"`
}

// TopicAuthorityMap is the content plan produced for a company's niche.
type TopicAuthorityMap struct {
	Niche                   string        `json:"niche"`
	Location                string        `json:"location"`
	Language                string        `json:"language"`
	CountryCode             string        `json:"country_code"`
	Pillars                 []TopicPillar `json:"pillars"`
	TotalKeywords           int           `json:"total_keywords"`
	AvgSearchVolume         float64       `json:"avg_search_volume"`
	ContentGapOpportunities []string      `json:"content_gap_opportunities"`
}

// TopicPillar is one pillar page and its supporting articles.
type TopicPillar struct {
	Topic               string              `json:"topic"`
	Intent              string              `json:"intent"`
	Seasonality         string              `json:"seasonality,omitempty"`
	ClusterScore        float64             `json:"cluster_score"`
	PillarPageH1        string              `json:"pillar_page_h1"`
	SupportingArticles  []SupportingArticle `json:"supporting_articles"`
	LocalEntitiesSample []string            `json:"local_entities_sample"`
	TopCompetingURLs    []string            `json:"top_competing_urls"`
}

// SupportingArticle is a planned article under a pillar.
type SupportingArticle struct {
	Title         string   `json:"title"`
	Keywords      []string `json:"keywords"`
	SERPFeatures  []string `json:"serp_features"`
	Intent        string   `json:"intent"`
	PriorityScore float64  `json:"priority_score"`
}

// Clone returns a deep copy of p. A nil profile clones to nil.
func (p *CompanyProfile) Clone() *CompanyProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.YearFounded != nil {
		y := *p.YearFounded
		c.YearFounded = &y
	}
	c.MainKeywords = slices.Clone(p.MainKeywords)
	c.Competitors = slices.Clone(p.Competitors)
	c.CompetitorURLs = slices.Clone(p.CompetitorURLs)
	c.Socials = maps.Clone(p.Socials)
	c.ConfidencePerField = maps.Clone(p.ConfidencePerField)
	c.TopicAuthorityMap = p.TopicAuthorityMap.Clone()
	return &c
}

// Clone returns a deep copy of m.
func (m *TopicAuthorityMap) Clone() *TopicAuthorityMap {
	if m == nil {
		return nil
	}
	c := *m
	c.ContentGapOpportunities = slices.Clone(m.ContentGapOpportunities)
	if m.Pillars != nil {
		c.Pillars = make([]TopicPillar, len(m.Pillars))
		for i, p := range m.Pillars {
			cp := p
			cp.LocalEntitiesSample = slices.Clone(p.LocalEntitiesSample)
			cp.TopCompetingURLs = slices.Clone(p.TopCompetingURLs)
			if p.SupportingArticles != nil {
				cp.SupportingArticles = make([]SupportingArticle, len(p.SupportingArticles))
				for j, a := range p.SupportingArticles {
					ca := a
					ca.Keywords = slices.Clone(a.Keywords)
					ca.SERPFeatures = slices.Clone(a.SERPFeatures)
					cp.SupportingArticles[j] = ca
				}
			}
			c.Pillars[i] = cp
		}
	}
	return &c
}
