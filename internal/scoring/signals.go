package scoring

import (
	"context"
	"strings"

	"ainews/internal/domain"
)

// Neutral is returned by signal providers that have nothing to go on.
const Neutral = 0.5

type ContentAnalyzer interface {
	ContentRelevance(ctx context.Context, content *string) (float64, error)
}

type EngagementLookup interface {
	HistoricalEngagement(ctx context.Context, source string) (float64, error)
}

type CredibilityLookup interface {
	SourceCredibility(ctx context.Context, source string) (float64, error)
}

type PodcastLookup interface {
	PodcastEngagement(ctx context.Context, storyID int64) (float64, error)
}

// KeywordRelevance scores content by the share of keywords it mentions.
// Saturation keywords are enough for a full score.
type KeywordRelevance struct {
	Keywords   []string
	Saturation int
}

func NewKeywordRelevance(keywords []string) *KeywordRelevance {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	saturation := 3
	if len(lowered) < saturation {
		saturation = len(lowered)
	}
	return &KeywordRelevance{Keywords: lowered, Saturation: saturation}
}

func (k *KeywordRelevance) ContentRelevance(_ context.Context, content *string) (float64, error) {
	if content == nil || strings.TrimSpace(*content) == "" || k.Saturation == 0 {
		return Neutral, nil
	}

	text := strings.ToLower(*content)
	hits := 0
	for _, kw := range k.Keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	if hits >= k.Saturation {
		return 1, nil
	}
	return float64(hits) / float64(k.Saturation), nil
}

type EngagementSource interface {
	SourceEngagement(ctx context.Context, source string) (domain.Engagement, error)
}

// ClickThrough derives historical engagement from the click-through rate of
// every story previously published by the source.
type ClickThrough struct {
	store EngagementSource
}

func NewClickThrough(store EngagementSource) *ClickThrough {
	return &ClickThrough{store: store}
}

func (c *ClickThrough) HistoricalEngagement(ctx context.Context, source string) (float64, error) {
	e, err := c.store.SourceEngagement(ctx, source)
	if err != nil {
		return 0, err
	}
	if e.EmailOpens == 0 {
		return Neutral, nil
	}
	return clamp(float64(e.LinkClicks) / float64(e.EmailOpens)), nil
}

// CredibilityTable maps source names to a trust value. Lookups are case-insensitive.
type CredibilityTable struct {
	scores   map[string]float64
	fallback float64
}

func NewCredibilityTable(scores map[string]float64, fallback float64) *CredibilityTable {
	t := &CredibilityTable{scores: make(map[string]float64, len(scores)), fallback: fallback}
	for name, v := range scores {
		t.scores[strings.ToLower(name)] = v
	}
	return t
}

func (t *CredibilityTable) SourceCredibility(_ context.Context, source string) (float64, error) {
	if v, ok := t.scores[strings.ToLower(source)]; ok {
		return v, nil
	}
	return t.fallback, nil
}

// Constant answers every podcast lookup with the same value; there is no
// podcast analytics feed yet.
type Constant float64

func (c Constant) PodcastEngagement(context.Context, int64) (float64, error) {
	return float64(c), nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
