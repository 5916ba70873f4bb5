package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/framelens/composition-go/internal/config"
	apperrors "github.com/framelens/composition-go/internal/errors"
	"github.com/framelens/composition-go/internal/logger"
	"github.com/framelens/composition-go/internal/observer"
	"github.com/framelens/composition-go/internal/queue"
	"github.com/framelens/composition-go/internal/service"
)

type AnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type EnqueueRequest struct {
	URL      string `json:"url" binding:"required,url"`
	Priority int    `json:"priority,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler wires the HTTP surface: synchronous analysis, queue control, and
// metrics.
func NewHandler(svc service.CompositionAnalysisService, taskQueue *queue.Queue, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyzeImage(svc, cfg))

	q := r.Group("/queue")
	{
		q.POST("/enqueue", enqueueTask(svc))
		q.POST("/stop", stopQueue(taskQueue))
		q.POST("/pause", pauseQueue(taskQueue))
		q.POST("/resume", resumeQueue(taskQueue))
		q.DELETE("/history", clearHistory(taskQueue))
		q.GET("/status", queueStatus(taskQueue))
	}

	r.GET("/metrics", metricsSnapshot(metrics))

	return r
}

// analyzeImage runs one synchronous analysis: fetch, enqueue, await.
func analyzeImage(svc service.CompositionAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing composition analysis request")

		var req AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := svc.ValidateImageURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
			return
		}

		result, err := svc.AnalyzeURL(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"primary_rule":       result.DetectedRules[0],
			"score":              result.Score,
		}).Info("Composition analysis completed")

		c.JSON(http.StatusOK, result)
	}
}

// enqueueTask submits a task without waiting for its outcome.
func enqueueTask(svc service.CompositionAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EnqueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := svc.ValidateImageURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
			return
		}

		taskID, err := svc.EnqueueURL(c.Request.Context(), req.URL, req.Priority)
		if err != nil {
			respondError(c, determineStatusCode(err), "enqueue failed", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
	}
}

func stopQueue(taskQueue *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskQueue.Stop()
		c.JSON(http.StatusOK, taskQueue.Status())
	}
}

func pauseQueue(taskQueue *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskQueue.Pause()
		c.JSON(http.StatusOK, taskQueue.Status())
	}
}

func resumeQueue(taskQueue *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskQueue.Resume()
		c.JSON(http.StatusOK, taskQueue.Status())
	}
}

func clearHistory(taskQueue *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskQueue.ClearHistory()
		c.Status(http.StatusNoContent)
	}
}

func queueStatus(taskQueue *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  taskQueue.Status(),
			"history": taskQueue.History(),
		})
	}
}

func metricsSnapshot(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
