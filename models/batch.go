package models

import (
	"sync"
	"time"
)

// BatchRequest is the payload for POST /api/v1/batch/analyze.
type BatchRequest struct {
	// URLs is the list of target pages to analyze. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,url"`

	// Options contains shared analyze options applied to all URLs.
	Options BatchOptions `json:"options"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchOptions are the shared analyze settings applied to every URL in a batch.
type BatchOptions struct {
	Mode       string `json:"mode,omitempty" binding:"omitempty,oneof=auto http browser"`
	Timeout    int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	Stealth    bool   `json:"stealth,omitempty"`
	SkipRobots bool   `json:"skip_robots,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/analyze.
type BatchResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Total  int          `json:"total"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*AnalyzeResponse `json:"results,omitempty"`
}

// Batch job states.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchJob tracks an in-progress batch analysis.
type BatchJob struct {
	mu sync.Mutex

	ID            string
	Status        string
	Total         int
	Completed     int
	Results       []*AnalyzeResponse
	CreatedAt     int64 // unix timestamp
	FinishedAt    int64 // unix timestamp, set by Finish
	WebhookURL    string
	WebhookSecret string
}

// Record stores the result for URL index idx and bumps the completed counter.
func (j *BatchJob) Record(idx int, resp *AnalyzeResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Results[idx] = resp
	j.Completed++
}

// Finish sets the terminal status from the per-URL outcomes.
func (j *BatchJob) Finish() (status string, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, r := range j.Results {
		if r == nil || !r.Success {
			failed++
		}
	}
	switch {
	case failed == j.Total:
		j.Status = BatchFailed
	case failed > 0:
		j.Status = BatchPartial
	default:
		j.Status = BatchCompleted
	}
	j.FinishedAt = time.Now().Unix()
	return j.Status, failed
}

// FinishedBefore reports whether the job finished before the unix time
// cutoff. A job still processing never has.
func (j *BatchJob) FinishedBefore(cutoff int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status != BatchProcessing && j.FinishedAt < cutoff
}

// Snapshot returns a consistent copy of the job's public state.
func (j *BatchJob) Snapshot() BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*AnalyzeResponse, len(j.Results))
	copy(results, j.Results)
	return BatchStatusResponse{
		ID:        j.ID,
		Status:    j.Status,
		Completed: j.Completed,
		Total:     j.Total,
		Results:   results,
	}
}
