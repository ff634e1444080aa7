package model

// Source is one piece of evidence backing a field value.
type Source struct {
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Candidate is one ranked value the extractor considered for a field.
type Candidate struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}
