package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/config"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/webhook"
)

// BatchStore holds all in-flight and completed batch jobs.
type BatchStore struct {
	jobs sync.Map
	ttl  time.Duration
}

// NewBatchStore creates a store whose jobs expire ttl after they finish.
// Jobs still processing are never swept. A background goroutine sweeps
// expired jobs every 5 minutes until ctx is done.
func NewBatchStore(ctx context.Context, ttl time.Duration) *BatchStore {
	s := &BatchStore{ttl: ttl}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.expire(now)
			}
		}
	}()
	return s
}

func (s *BatchStore) put(job *models.BatchJob) { s.jobs.Store(job.ID, job) }

func (s *BatchStore) get(id string) (*models.BatchJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*models.BatchJob), true
}

func (s *BatchStore) expire(now time.Time) {
	cutoff := now.Add(-s.ttl).Unix()
	s.jobs.Range(func(key, value any) bool {
		if value.(*models.BatchJob).FinishedBefore(cutoff) {
			s.jobs.Delete(key)
		}
		return true
	})
}

// PostBatch returns a handler for POST /api/v1/batch/analyze.
// It validates the request, creates a batch job, and analyzes the URLs in
// the background with at most cfg.Batch.Concurrency in flight.
func PostBatch(an Analyzer, store *BatchStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.BatchResponse{
				Status: models.BatchFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		job := &models.BatchJob{
			ID:            "batch-" + randomID(),
			Status:        models.BatchProcessing,
			Total:         len(req.URLs),
			Results:       make([]*models.AnalyzeResponse, len(req.URLs)),
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		store.put(job)

		// The request context ends with this handler.
		go runBatch(context.Background(), an, cfg, job, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: models.BatchProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, job.Snapshot())
	}
}

// runBatch analyzes every URL of job with a semaphore bounding
// concurrency, then fires the completion webhook if one was requested.
func runBatch(ctx context.Context, an Analyzer, cfg *config.Config, job *models.BatchJob, req models.BatchRequest) {
	maxConcurrent := cfg.Batch.Concurrency
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			areq := &models.AnalyzeRequest{
				URL:        targetURL,
				Mode:       req.Options.Mode,
				Timeout:    req.Options.Timeout,
				Stealth:    req.Options.Stealth,
				SkipRobots: req.Options.SkipRobots,
			}
			areq.Defaults()

			resp, err := analyzeOne(ctx, an, cfg.Collector, areq)
			if err != nil {
				resp.Error = toAnalysisError(err).ToDetail()
			}
			job.Record(idx, resp)
		}(i, rawURL)
	}
	wg.Wait()

	status, failed := job.Finish()
	slog.Info("batch job finished",
		"id", job.ID,
		"status", status,
		"failed", failed,
		"total", job.Total,
	)

	if job.WebhookURL != "" {
		eventType := webhook.EventBatchCompleted
		if status == models.BatchFailed {
			eventType = webhook.EventBatchFailed
		}
		webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      eventType,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      job.Snapshot(),
		})
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
