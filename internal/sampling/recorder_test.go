package sampling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/submission"
)

func TestSurveyCompletedRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var batches [][]submission.Record
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []submission.Record
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("Bad batch payload: %v", err)
		}
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	state := store.NewManager(store.NewMemoryBackend())
	queue := submission.NewQueue(server.URL, time.Second)
	recorder := NewRecorder(state, queue, newFakeBrowser())

	responses := json.RawMessage(`[{"question":"q1","answer":"a1"}]`)
	before := time.Now()
	for i := 0; i < 2; i++ {
		err := recorder.OnSurveyCompleted(context.Background(), CompletedSurvey{
			SurveyType: "ssl-overridable-proceed",
			Responses:  responses,
		})
		if err != nil {
			t.Fatalf("OnSurveyCompleted failed: %v", err)
		}
	}

	if err := queue.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("Expected one batch of two records, got %v", batches)
	}

	first, second := batches[0][0], batches[0][1]
	if first.SurveyType != "ssl-overridable-proceed" {
		t.Errorf("Unexpected survey type %q", first.SurveyType)
	}
	if string(first.Responses) != string(responses) {
		t.Errorf("Responses not preserved: %s", first.Responses)
	}
	if first.ParticipantID != second.ParticipantID {
		t.Error("Participant id must be stable across consecutive submissions")
	}
	if first.Timestamp.Before(before) {
		t.Errorf("Timestamp %v predates the submission", first.Timestamp)
	}
	if first.OS != "linux" {
		t.Errorf("Expected platform os stamped, got %q", first.OS)
	}
	if first.ID == second.ID {
		t.Error("Record ids must be unique")
	}
}

func TestParticipantIDGeneratedOnceAndPersisted(t *testing.T) {
	state := store.NewManager(store.NewMemoryBackend())
	queue := submission.NewQueue("http://unused.invalid", time.Second)

	recorder := NewRecorder(state, queue, nil)
	id1, err := recorder.participantID(context.Background())
	if err != nil {
		t.Fatalf("participantID failed: %v", err)
	}

	if len(id1) != participantIDLength {
		t.Fatalf("Expected %d-char id, got %d", participantIDLength, len(id1))
	}
	for _, c := range id1 {
		if !strings.ContainsRune(participantIDAlphabet, c) {
			t.Fatalf("Character %q outside the fixed alphabet", c)
		}
	}

	// A second recorder over the same store resolves the same id.
	id2, err := NewRecorder(state, queue, nil).participantID(context.Background())
	if err != nil {
		t.Fatalf("participantID failed: %v", err)
	}
	if id1 != id2 {
		t.Error("Participant id must be immutable once generated")
	}

	st, _ := state.Snapshot(context.Background())
	if st.ParticipantID != id1 {
		t.Error("Participant id must be persisted")
	}
}
