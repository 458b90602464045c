package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ainews/internal/domain"
)

const (
	dateLayout      = "2006-01-02"
	publishedLayout = "2006-01-02 15:04"
	generatedLayout = "2006-01-02 15:04:05"

	noDescription = "No description available."
	storyMarker   = "### "
)

type DigestService struct {
	stories StoryStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewDigestService(stories StoryStore, logger *slog.Logger) *DigestService {
	return &DigestService{
		stories: stories,
		logger:  logger.With("component", "digest"),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for the digest date and footer.
func (s *DigestService) WithClock(now func() time.Time) *DigestService {
	s.now = now
	return s
}

// InLocation dates digests and their filenames in loc instead of the host zone.
func (s *DigestService) InLocation(loc *time.Location) *DigestService {
	now := s.now
	s.now = func() time.Time { return now().In(loc) }
	return s
}

// GenerateDailyDigest renders the newest stories scoring at least minScore.
func (s *DigestService) GenerateDailyDigest(ctx context.Context, minScore float64, limit int) (string, error) {
	stories, err := s.stories.GetStories(ctx, 0, limit, minScore)
	if err != nil {
		return "", fmt.Errorf("get stories: %w", err)
	}

	s.logger.Debug("rendering digest", "stories", len(stories), "min_score", minScore)

	return s.Render(stories), nil
}

// Render turns stories into the markdown digest, numbering them from 1.
func (s *DigestService) Render(stories []domain.Story) string {
	now := s.now()

	lines := []string{
		"# AI News Digest - " + now.Format(dateLayout),
		"",
		"Today's top stories about artificial intelligence and machine learning.",
		"",
		"## Top Stories",
		"",
	}

	for i, story := range stories {
		description := noDescription
		if story.Description != nil && *story.Description != "" {
			description = *story.Description
		}

		lines = append(lines,
			fmt.Sprintf("%s%d. %s", storyMarker, i+1, story.Title),
			"",
			fmt.Sprintf("**Source:** %s  ", story.Source),
			fmt.Sprintf("**Published:** %s  ", story.PublishedAt.Format(publishedLayout)),
			fmt.Sprintf("**Interest Score:** %.2f", story.InterestingScore),
			"",
			description,
			"",
			fmt.Sprintf("[Read more](%s)", story.URL),
			"",
			"---",
			"",
		)
	}

	lines = append(lines,
		"## About This Digest",
		"",
		"This digest is automatically generated based on story relevance and interest scores. ",
		"Stories are selected based on their potential impact on business AI integration decisions.",
		"",
		"Generated on "+now.Format(generatedLayout),
	)

	return strings.Join(lines, "\n")
}

// SaveDailyDigest writes content to directory/digest-YYYY-MM-DD.md, creating the
// directory if needed and replacing any digest already saved today.
func (s *DigestService) SaveDailyDigest(content, directory string) (string, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("create digest directory: %w", err)
	}

	path := filepath.Join(directory, DigestFilename(s.now()))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}

	s.logger.Info("digest saved", "path", path)
	return path, nil
}

// GenerateAndSave is the scheduled daily job.
func (s *DigestService) GenerateAndSave(ctx context.Context, minScore float64, limit int, directory string) (string, error) {
	content, err := s.GenerateDailyDigest(ctx, minScore, limit)
	if err != nil {
		return "", err
	}
	return s.SaveDailyDigest(content, directory)
}

func DigestFilename(day time.Time) string {
	return "digest-" + day.Format(dateLayout) + ".md"
}

// CountStories counts the story sections in a rendered digest.
func CountStories(content string) int {
	return strings.Count(content, storyMarker)
}
