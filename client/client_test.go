package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/scrapecheck/models"
)

func TestAnalyzeSendsKeyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "k1" {
			t.Errorf("X-API-Key = %q", got)
		}
		var req models.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.AnalyzeResponse{
			Success:    true,
			FinalURL:   req.URL,
			EngineUsed: "http",
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "k1", 5*time.Second)
	resp, err := c.Analyze(context.Background(), &models.AnalyzeRequest{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !resp.Success || resp.FinalURL != "https://example.com" || resp.EngineUsed != "http" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeTimeout, Message: "too slow"},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Analyze(context.Background(), &models.AnalyzeRequest{URL: "https://example.com"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusGatewayTimeout || apiErr.Code != models.ErrCodeTimeout {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Code != "" || apiErr.Message != "Internal Server Error" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestReportReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Report\n"))
	}))
	defer srv.Close()

	got, err := New(srv.URL, "", time.Second).Report(context.Background(), &models.SiteAnalysisResult{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got != "# Report\n" {
		t.Errorf("Report = %q", got)
	}
}

func TestBatchPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/batch/analyze":
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(models.BatchResponse{ID: "batch-1", Status: models.BatchProcessing, Total: 2})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/batch/batch-1":
			status := models.BatchProcessing
			if polls.Add(1) >= 2 {
				status = models.BatchCompleted
			}
			_ = json.NewEncoder(w).Encode(models.BatchStatusResponse{ID: "batch-1", Status: status, Completed: 2, Total: 2})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	c.PollInterval = 10 * time.Millisecond

	got, err := c.Batch(context.Background(), &models.BatchRequest{URLs: []string{"https://a.test", "https://b.test"}})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if got.Status != models.BatchCompleted || polls.Load() != 2 {
		t.Errorf("status=%s polls=%d", got.Status, polls.Load())
	}
}

func TestBatchWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.BatchResponse{})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Batch(context.Background(), &models.BatchRequest{URLs: []string{"https://a.test"}})
	if !errors.Is(err, ErrJobNotCreated) {
		t.Errorf("want ErrJobNotCreated, got %v", err)
	}
}

func TestBatchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(models.BatchResponse{ID: "batch-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.BatchStatusResponse{ID: "batch-2", Status: models.BatchProcessing})
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	c.PollInterval = 5 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Batch(ctx, &models.BatchRequest{URLs: []string{"https://a.test"}}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want deadline exceeded, got %v", err)
	}
}
