package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ainews/internal/domain"
)

const (
	SourceID   = "newsapi"
	SourceName = "NewsAPI"

	// TimeLayout is the publishedAt format NewsAPI returns.
	TimeLayout = "2006-01-02T15:04:05Z"

	removedTitle = "[Removed]"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("NEWS_API_KEY not found in environment variables")

// Config holds NewsAPI source configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Query          string
	Language       string
	SortBy         string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source queries the NewsAPI everything endpoint with a fixed topic query.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	query          string
	language       string
	sortBy         string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		query:          cfg.Query,
		language:       cfg.Language,
		sortBy:         cfg.SortBy,
		pageSize:       cfg.PageSize,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchArticles returns up to limit articles; limit <= 0 uses the configured page size.
func (s *Source) FetchArticles(ctx context.Context, limit int) ([]domain.NewStory, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = s.pageSize
	}

	resp, err := s.fetch(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched articles",
		"received", len(resp.Articles),
		"total_results", resp.TotalResults,
	)

	return s.transform(resp.Articles), nil
}

func (s *Source) fetch(ctx context.Context, limit int) (*APIResponse, error) {
	params := url.Values{}
	params.Set("q", s.query)
	params.Set("language", s.language)
	params.Set("sortBy", s.sortBy)
	params.Set("pageSize", strconv.Itoa(limit))
	reqURL := s.baseURL + "?" + params.Encode()

	var resp *APIResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, reqURL)
		if err == nil {
			return resp, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if s.maxAttempts > 1 {
		return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
	}
	return nil, err
}

func (s *Source) doRequest(ctx context.Context, reqURL string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AINews/1.0")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || apiResp.Status == "error" {
		return nil, fmt.Errorf("newsapi error (status %d, code %q): %s", resp.StatusCode, apiResp.Code, apiResp.Message)
	}

	return &apiResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(articles []Article) []domain.NewStory {
	stories := make([]domain.NewStory, 0, len(articles))

	for _, a := range articles {
		if a.URL == "" || a.Title == "" || a.Title == removedTitle {
			s.logger.Debug("skipping unusable article", "url", a.URL)
			continue
		}

		publishedAt, err := time.Parse(TimeLayout, a.PublishedAt)
		if err != nil {
			s.logger.Warn("failed to parse date",
				"url", a.URL,
				"date", a.PublishedAt,
			)
			continue
		}

		stories = append(stories, domain.NewStory{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: publishedAt,
			Content:     a.Content,
		})
	}

	return stories
}
