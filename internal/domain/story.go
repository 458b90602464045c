package domain

import (
	"errors"
	"time"
)

// ErrStoryExists is returned when a story with the same URL is already stored.
var ErrStoryExists = errors.New("story already exists")

type Story struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	Description      *string   `db:"description" json:"description"`
	URL              string    `db:"url" json:"url"`
	Source           string    `db:"source" json:"source"`
	InterestingScore float64   `db:"interesting_score" json:"interesting_score"`
	PublishedAt      time.Time `db:"published_at" json:"published_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UsedInEmail      bool      `db:"used_in_email" json:"used_in_email"`
	Content          *string   `db:"content" json:"-"`
}

// NewStory carries the fields a caller supplies when inserting a story.
type NewStory struct {
	Title            string
	Description      *string
	URL              string
	Source           string
	InterestingScore float64
	PublishedAt      time.Time
	Content          *string
}

type StoryMetrics struct {
	ID            int64     `db:"id" json:"id"`
	StoryID       int64     `db:"story_id" json:"story_id"`
	EmailOpens    int64     `db:"email_opens" json:"email_opens"`
	LinkClicks    int64     `db:"link_clicks" json:"link_clicks"`
	TimeSpent     *float64  `db:"time_spent" json:"time_spent"`
	FeedbackScore *float64  `db:"feedback_score" json:"feedback_score"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MetricsUpdate is a partial update: nil fields keep their stored value.
type MetricsUpdate struct {
	EmailOpens    *int64
	LinkClicks    *int64
	TimeSpent     *float64
	FeedbackScore *float64
}

// Empty reports whether the update would change nothing.
func (u MetricsUpdate) Empty() bool {
	return u.EmailOpens == nil && u.LinkClicks == nil && u.TimeSpent == nil && u.FeedbackScore == nil
}

// Engagement aggregates metrics over all stories of one source.
type Engagement struct {
	Stories    int64 `db:"stories"`
	EmailOpens int64 `db:"email_opens"`
	LinkClicks int64 `db:"link_clicks"`
}
