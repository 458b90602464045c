package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ainews/internal/domain"
)

type StoryStore interface {
	GetStoryByID(ctx context.Context, id int64) (*domain.Story, error)
	UpdateStoryScore(ctx context.Context, id int64, score float64) (*domain.Story, error)
	GetStoryMetrics(ctx context.Context, storyID int64) (*domain.StoryMetrics, error)
	UpdateStoryMetrics(ctx context.Context, storyID int64, update domain.MetricsUpdate) (*domain.StoryMetrics, error)
}

type StoryHandler struct {
	stories StoryStore
	logger  *slog.Logger
}

func NewStoryHandler(stories StoryStore, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, logger: logger}
}

func (h *StoryHandler) GetStory(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	story, err := h.stories.GetStoryByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("error fetching story", "error", err, "story_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}

	c.JSON(http.StatusOK, newStoryResponse(*story))
}

func (h *StoryHandler) UpdateScore(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	story, err := h.stories.UpdateStoryScore(c.Request.Context(), id, *req.Score)
	if err != nil {
		h.logger.Error("error updating score", "error", err, "story_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}

	c.JSON(http.StatusOK, newStoryResponse(*story))
}

func (h *StoryHandler) GetMetrics(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	metrics, err := h.stories.GetStoryMetrics(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("error fetching metrics", "error", err, "story_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Metrics not found"})
		return
	}

	c.JSON(http.StatusOK, newMetricsResponse(metrics))
}

func (h *StoryHandler) UpdateMetrics(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	var req MetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	update := req.update()
	if update.Empty() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no metrics fields provided"})
		return
	}

	metrics, err := h.stories.UpdateStoryMetrics(c.Request.Context(), id, update)
	if err != nil {
		h.logger.Error("error updating metrics", "error", err, "story_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Metrics not found"})
		return
	}

	c.JSON(http.StatusOK, newMetricsResponse(metrics))
}

func storyID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story id"})
		return 0, false
	}
	return id, true
}
