package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wpaudit/backend/advisor"
	"github.com/wpaudit/backend/analyzer"
	"github.com/wpaudit/backend/browser"
	"github.com/wpaudit/backend/config"
	"github.com/wpaudit/backend/logging"
	"github.com/wpaudit/backend/middleware"
	"github.com/wpaudit/backend/report"
	"github.com/wpaudit/backend/store"
)

type server struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	store    *store.Store
	stats    *logging.Statistics
}

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal("Failed to create data directory:", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	srv := &server{
		cfg: cfg,
		analyzer: analyzer.New(
			analyzer.NewPageSpeedAuditor(cfg.PageSpeedAPIKey),
			advisor.New(cfg.AIEndpoint, cfg.AIModel, cfg.AIAPIKey, cfg.AIEnabled),
		),
		store: db,
		stats: logging.Initialize(cfg.DataDir),
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())
	r.Use(srv.statsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, srv.stats.GetStatistics())
		})

		seo := api.Group("/seo")
		{
			seo.POST("/analyze", srv.analyzeSite)
			seo.POST("/fix", srv.requestFix)
			seo.GET("/history", srv.listHistory)
			seo.GET("/history/:id", srv.getHistory)
			seo.GET("/history/:id/export", srv.exportHistory)
		}
	}

	log.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *server) statsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.URL.Path == "/api/seo/analyze" && c.Request.Method == "POST" {
			duration := float64(time.Since(start).Milliseconds())
			s.stats.TrackAnalysis(c.GetString("auditedURL"), duration, c.Writer.Status() >= 400)

			if s.stats.GetStatistics()["totalRequests"].(int)%25 == 0 {
				go func() {
					if err := s.stats.Save(); err != nil {
						log.Printf("Failed to save statistics: %v", err)
					}
				}()
			}
		}
	}
}

// progressEvent is one line of the streamed analysis response.
type progressEvent struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// analyzeSite streams newline-delimited JSON progress events, ending
// with either a complete event carrying the report or an error event.
func (s *server) analyzeSite(c *gin.Context) {
	log.Printf("Analyze request received from: %s\n", c.ClientIP())
	var request struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}
	c.Set("auditedURL", request.URL)

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	flusher, _ := c.Writer.(http.Flusher)
	emit := func(v interface{}) {
		if err := enc.Encode(v); err != nil {
			log.Printf("Failed to write stream event: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	// One browser per request so concurrent analyses never share tabs.
	b, err := browser.New(s.cfg.ChromePath, s.cfg.BrowserTimeout)
	if err != nil {
		emit(gin.H{"type": "error", "stage": analyzer.StageFailed, "message": "Could not start browser: " + err.Error()})
		return
	}
	defer b.Close()

	result, err := s.analyzer.AnalyzeSite(c.Request.Context(), b, request.URL, func(stage string, progress int, message string) {
		emit(progressEvent{Stage: stage, Progress: progress, Message: message})
	})
	if err != nil {
		message := "Analysis failed: " + err.Error()
		if errors.Is(err, analyzer.ErrNotWordPress) {
			message = "The site does not appear to be running WordPress"
		}
		emit(gin.H{"type": "error", "stage": analyzer.StageFailed, "message": message})
		return
	}

	if id, err := s.store.SaveAnalysis(result); err != nil {
		log.Printf("Failed to persist analysis for %s: %v", result.URL, err)
	} else {
		log.Printf("Saved analysis %d for %s (score %d)", id, result.URL, result.Score.Overall)
	}

	emit(gin.H{"type": "complete", "result": result})
}

// requestFix records which issues the caller wants remediated. Fixes
// are queued for offline handling, not applied here.
func (s *server) requestFix(c *gin.Context) {
	var request struct {
		URL      string   `json:"url" binding:"required,url"`
		IssueIDs []string `json:"issueIds" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A url and at least one issue id are required"})
		return
	}

	if err := s.store.RecordFixRequest(request.URL, request.IssueIDs); err != nil {
		log.Printf("Failed to record fix request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record fix request"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"queued":   len(request.IssueIDs),
	})
}

func (s *server) listHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	summaries, err := s.store.ListAnalyses(limit)
	if err != nil {
		log.Printf("Failed to list analyses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": summaries})
}

func (s *server) getHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis id"})
		return
	}
	result, err := s.store.GetAnalysis(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) exportHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis id"})
		return
	}
	result, err := s.store.GetAnalysis(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=seo-report-"+strconv.FormatInt(id, 10)+".xlsx")
	if err := report.ExportXLSX(c.Writer, result); err != nil {
		log.Printf("Failed to export analysis %d: %v", id, err)
	}
}
