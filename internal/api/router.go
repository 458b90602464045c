package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	News    *NewsHandler
	Digest  *DigestHandler
	Stories *StoryHandler
	DB      Pinger
}

func NewRouter(allowedOrigins []string, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", Root)
	r.GET("/health", Health(h.DB))

	api := r.Group("/api")
	api.GET("/news", h.News.GetNews)
	api.GET("/digest/generate", h.Digest.GenerateDigest)
	api.GET("/stories/:id", h.Stories.GetStory)
	api.PUT("/stories/:id/score", h.Stories.UpdateScore)
	api.GET("/stories/:id/metrics", h.Stories.GetMetrics)
	api.PATCH("/stories/:id/metrics", h.Stories.UpdateMetrics)

	return r
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "AI News Aggregator API",
		"status":  "running",
	})
}

func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
