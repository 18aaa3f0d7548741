package server

import (
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spotifyetl.com/m/internal/pipeline"
)

// Server exposes pipeline runs and stats over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger

	defaultLimit     int
	defaultHoursBack int
}

func New(p *pipeline.Pipeline, logger *zap.Logger, defaultLimit, defaultHoursBack int) *Server {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if defaultHoursBack <= 0 {
		defaultHoursBack = 1
	}
	return &Server{
		pipeline:         p,
		logger:           logger,
		defaultLimit:     defaultLimit,
		defaultHoursBack: defaultHoursBack,
	}
}

// Router builds the gin engine with logging and recovery middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Spotify ETL",
			"status":  "healthy",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.POST("/pipeline/run", s.runHandler)
	api.POST("/pipeline/incremental", s.incrementalHandler)
	api.GET("/stats", s.statsHandler)

	return router
}

// runHandler triggers a full pipeline run. Optional query parameters:
// limit (row cap) and source (recent, liked or playlists).
func (s *Server) runHandler(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", s.defaultLimit)
	if !ok {
		return
	}

	source := pipeline.Source(c.DefaultQuery("source", string(pipeline.SourceRecent)))
	switch source {
	case pipeline.SourceRecent, pipeline.SourceLiked, pipeline.SourcePlaylists:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source: " + string(source)})
		return
	}

	result := s.pipeline.Run(c.Request.Context(), source, limit)
	s.respond(c, result)
}

// incrementalHandler triggers a recently-played run bounded to the last
// hours hours.
func (s *Server) incrementalHandler(c *gin.Context) {
	limit, ok := s.intQuery(c, "limit", s.defaultLimit)
	if !ok {
		return
	}
	hours, ok := s.intQuery(c, "hours", s.defaultHoursBack)
	if !ok {
		return
	}

	result := s.pipeline.RunIncremental(c.Request.Context(), limit, hours)
	s.respond(c, result)
}

func (s *Server) statsHandler(c *gin.Context) {
	counts, err := s.pipeline.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to read table counts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": counts})
}

func (s *Server) respond(c *gin.Context, result pipeline.Result) {
	if result.Success {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusInternalServerError, result)
}

// intQuery parses a positive integer query parameter, writing a 400 response
// on bad input.
func (s *Server) intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + raw})
		return 0, false
	}
	return n, true
}
