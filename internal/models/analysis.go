package models

// AnalysisDraft is the JSON object the language model must return.
type AnalysisDraft struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Challenge      string   `json:"challenge"`
	Solution       string   `json:"solution"`
	Results        string   `json:"results"`
	Metrics        []Metric `json:"metrics"`
	Quotes         []Quote  `json:"quotes"`
	KeyTakeaways   []string `json:"key_takeaways"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	LinkedInPost   string   `json:"linkedin_post"`
	TwitterPost    string   `json:"twitter_post"`
}
