// Package submission batches completed survey records and ships them to the
// collection backend on a periodic flush tick. Delivery durability beyond
// keeping unsent records queued is owned by the backend.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/metrics"
)

// Record is one completed survey stamped with participant identity and time.
type Record struct {
	ID            string          `json:"id"`
	SurveyType    string          `json:"surveyType"`
	ParticipantID string          `json:"participantId"`
	Timestamp     time.Time       `json:"timestamp"`
	OS            string          `json:"os,omitempty"`
	Responses     json.RawMessage `json:"responses"`
}

// Queue accumulates records and flushes them as a JSON batch.
type Queue struct {
	httpClient *http.Client
	submitURL  string

	mu      sync.Mutex
	pending []Record
}

// NewQueue creates a submission queue posting to the given URL.
func NewQueue(submitURL string, timeout time.Duration) *Queue {
	return &Queue{
		httpClient: &http.Client{Timeout: timeout},
		submitURL:  submitURL,
	}
}

// Enqueue adds a record to the pending batch.
func (q *Queue) Enqueue(rec Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, rec)
}

// Len returns the number of pending records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush posts the pending batch. On failure the batch stays queued for the
// next tick.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	batch := make([]Record, len(q.pending))
	copy(batch, q.pending)
	q.mu.Unlock()

	if len(batch) == 0 {
		metrics.SubmissionFlushesTotal.WithLabelValues("empty").Inc()
		return nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		metrics.SubmissionFlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to encode submission batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.submitURL, bytes.NewReader(body))
	if err != nil {
		metrics.SubmissionFlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		metrics.SubmissionFlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to post submission batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.SubmissionFlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("submission backend returned status %d", resp.StatusCode)
	}

	q.mu.Lock()
	q.pending = q.pending[len(batch):]
	q.mu.Unlock()

	metrics.SubmissionFlushesTotal.WithLabelValues("success").Inc()
	log.Info().Int("records", len(batch)).Msg("Submission batch flushed")
	return nil
}
