package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ainews/internal/domain"
)

var ErrZeroWeights = errors.New("scoring weights sum to zero")

type Weights struct {
	Content     float64
	Engagement  float64
	Freshness   float64
	Credibility float64
	Podcast     float64
}

// EqualWeights reproduces a plain average of the five signals.
func EqualWeights() Weights {
	return Weights{Content: 1, Engagement: 1, Freshness: 1, Credibility: 1, Podcast: 1}
}

func (w Weights) sum() float64 {
	return w.Content + w.Engagement + w.Freshness + w.Credibility + w.Podcast
}

// Signals groups the providers the full recalculation draws on.
type Signals struct {
	Content     ContentAnalyzer
	Engagement  EngagementLookup
	Credibility CredibilityLookup
	Podcast     PodcastLookup
}

// Scorer is the full recalculation: a weighted mean of content relevance,
// historical engagement, freshness, source credibility and podcast engagement.
type Scorer struct {
	signals  Signals
	weights  Weights
	halfLife time.Duration
	now      func() time.Time
}

func NewScorer(signals Signals, weights Weights, halfLife time.Duration) (*Scorer, error) {
	if weights.sum() <= 0 {
		return nil, ErrZeroWeights
	}
	return &Scorer{
		signals:  signals,
		weights:  weights,
		halfLife: halfLife,
		now:      time.Now,
	}, nil
}

// WithClock replaces the time source used for freshness.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Breakdown holds the clamped sub-scores behind one result.
type Breakdown struct {
	Content     float64
	Engagement  float64
	Freshness   float64
	Credibility float64
	Podcast     float64
}

func (s *Scorer) Score(ctx context.Context, story *domain.Story) (float64, error) {
	b, err := s.Breakdown(ctx, story)
	if err != nil {
		return 0, err
	}
	return s.Combine(b), nil
}

func (s *Scorer) Breakdown(ctx context.Context, story *domain.Story) (Breakdown, error) {
	var b Breakdown
	var err error

	if b.Content, err = s.signals.Content.ContentRelevance(ctx, story.Content); err != nil {
		return b, fmt.Errorf("content relevance: %w", err)
	}
	if b.Engagement, err = s.signals.Engagement.HistoricalEngagement(ctx, story.Source); err != nil {
		return b, fmt.Errorf("historical engagement: %w", err)
	}
	b.Freshness = Freshness(s.now().Sub(story.PublishedAt), s.halfLife)
	if b.Credibility, err = s.signals.Credibility.SourceCredibility(ctx, story.Source); err != nil {
		return b, fmt.Errorf("source credibility: %w", err)
	}
	if b.Podcast, err = s.signals.Podcast.PodcastEngagement(ctx, story.ID); err != nil {
		return b, fmt.Errorf("podcast engagement: %w", err)
	}

	b.Content = clamp(b.Content)
	b.Engagement = clamp(b.Engagement)
	b.Freshness = clamp(b.Freshness)
	b.Credibility = clamp(b.Credibility)
	b.Podcast = clamp(b.Podcast)

	return b, nil
}

func (s *Scorer) Combine(b Breakdown) float64 {
	w := s.weights
	total := w.Content*b.Content +
		w.Engagement*b.Engagement +
		w.Freshness*b.Freshness +
		w.Credibility*b.Credibility +
		w.Podcast*b.Podcast
	return total / w.sum()
}
