package submission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func record(id string) Record {
	return Record{
		ID:            id,
		SurveyType:    "ssl-overridable-proceed",
		ParticipantID: "p1",
		Timestamp:     time.Now(),
		Responses:     json.RawMessage(`[]`),
	}
}

func TestFlushEmptyQueue(t *testing.T) {
	q := NewQueue("http://unused.invalid", time.Second)
	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Empty flush must not error: %v", err)
	}
}

func TestFlushDeliversBatch(t *testing.T) {
	var got []Record
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	q := NewQueue(server.URL, time.Second)
	q.Enqueue(record("a"))
	q.Enqueue(record("b"))

	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Unexpected batch: %v", got)
	}
	if q.Len() != 0 {
		t.Errorf("Expected queue drained, %d left", q.Len())
	}
}

func TestFailedFlushKeepsRecords(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	q := NewQueue(server.URL, time.Second)
	q.Enqueue(record("a"))

	if err := q.Flush(context.Background()); err == nil {
		t.Fatal("Expected first flush to fail")
	}
	if q.Len() != 1 {
		t.Fatalf("Failed flush must keep records, %d left", q.Len())
	}

	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Second flush failed: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("Expected queue drained after retry, %d left", q.Len())
	}
}

func TestEnqueueDuringFlushIsNotLost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	q := NewQueue(server.URL, time.Second)
	q.Enqueue(record("a"))

	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	q.Enqueue(record("b"))
	if q.Len() != 1 {
		t.Errorf("Expected the later record still queued, got %d", q.Len())
	}
}
