package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ainews/internal/service"
)

type DigestGenerator interface {
	GenerateDailyDigest(ctx context.Context, minScore float64, limit int) (string, error)
}

type DigestHandler struct {
	digests DigestGenerator
	logger  *slog.Logger
	now     func() time.Time
}

func NewDigestHandler(digests DigestGenerator, logger *slog.Logger) *DigestHandler {
	return &DigestHandler{
		digests: digests,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *DigestHandler) GenerateDigest(c *gin.Context) {
	var q DigestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	content, err := h.digests.GenerateDailyDigest(c.Request.Context(), q.MinScore, q.Limit)
	if err != nil {
		h.logger.Error("error generating digest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating digest: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, DigestResponse{
		Content:     content,
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
		StoryCount:  service.CountStories(content),
		MinScore:    q.MinScore,
	})
}
