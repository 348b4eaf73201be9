package models

import (
	"time"
)

type CaseStudyStatus string

const (
	CaseStudyDraft     CaseStudyStatus = "draft"
	CaseStudyPublished CaseStudyStatus = "published"
)

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Quote struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

type CaseStudy struct {
	ID             string           `json:"id" db:"id"`
	ProjectID      string           `json:"project_id" db:"project_id"`
	OrganizationID string           `json:"organization_id" db:"organization_id"`
	Title          string           `json:"title" db:"title"`
	Summary        string           `json:"summary" db:"summary"`
	Challenge      string           `json:"challenge" db:"challenge"`
	Solution       string           `json:"solution" db:"solution"`
	Results        string           `json:"results" db:"results"`
	Metrics        JSONList[Metric] `json:"metrics" db:"metrics"`
	Quotes         JSONList[Quote]  `json:"quotes" db:"quotes"`
	KeyTakeaways   JSONList[string] `json:"key_takeaways" db:"key_takeaways"`
	SEOTitle       string           `json:"seo_title" db:"seo_title"`
	SEODescription string           `json:"seo_description" db:"seo_description"`
	Slug           string           `json:"slug" db:"slug"`
	Status         CaseStudyStatus  `json:"status" db:"status"`
	PublishedAt    *time.Time       `json:"published_at,omitempty" db:"published_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
	SocialPosts    []SocialPost     `json:"social_posts,omitempty" db:"-"`
}

type SocialPlatform string

const (
	PlatformLinkedIn SocialPlatform = "linkedin"
	PlatformTwitter  SocialPlatform = "twitter"
)

type SocialPost struct {
	ID          string         `json:"id" db:"id"`
	CaseStudyID string         `json:"case_study_id" db:"case_study_id"`
	ProjectID   string         `json:"project_id" db:"project_id"`
	Platform    SocialPlatform `json:"platform" db:"platform"`
	Content     string         `json:"content" db:"content"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
