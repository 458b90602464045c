package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ainews/internal/domain"
)

type StoryLister interface {
	GetStories(ctx context.Context, skip, limit int, minScore float64) ([]domain.Story, error)
}

type Ingester interface {
	Ingest(ctx context.Context, limit int) (*domain.IngestStats, error)
}

type NewsHandler struct {
	stories  StoryLister
	ingester Ingester
	backfill bool
	logger   *slog.Logger
}

// NewNewsHandler serves stored stories. When ingester is non-nil and backfill is
// set, a short page triggers one ingestion run before the page is re-read.
func NewNewsHandler(stories StoryLister, ingester Ingester, backfill bool, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		stories:  stories,
		ingester: ingester,
		backfill: backfill && ingester != nil,
		logger:   logger,
	}
}

func (h *NewsHandler) GetNews(c *gin.Context) {
	var q NewsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	stories, err := h.stories.GetStories(ctx, q.Skip, q.Limit, q.MinScore)
	if err == nil && h.backfill && len(stories) < q.Limit {
		stories, err = h.backfillPage(ctx, q)
	}
	if err != nil {
		h.logger.Error("error fetching news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching news: " + err.Error()})
		return
	}

	res := make([]StoryResponse, 0, len(stories))
	for _, s := range stories {
		res = append(res, newStoryResponse(s))
	}

	c.JSON(http.StatusOK, res)
}

func (h *NewsHandler) backfillPage(ctx context.Context, q NewsQuery) ([]domain.Story, error) {
	stats, err := h.ingester.Ingest(ctx, q.Limit)
	if err != nil {
		return nil, err
	}
	h.logger.Info("backfilled short page", "new", stats.New, "skipped", stats.Skipped)

	return h.stories.GetStories(ctx, q.Skip, q.Limit, q.MinScore)
}
