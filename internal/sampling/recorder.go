package sampling

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/submission"
)

// Participant ids are 100 characters drawn from this fixed alphabet.
const (
	participantIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXTZabcdefghiklmnopqrstuvwxyz"
	participantIDLength   = 100
)

// CompletedSurvey is the payload delivered by a finished survey page.
type CompletedSurvey struct {
	SurveyType string          `json:"survey_type"`
	Responses  json.RawMessage `json:"responses"`
}

// Recorder stamps completed surveys with participant identity and time and
// hands them to the submission queue. Delivery is the queue's problem.
type Recorder struct {
	state    *store.Manager
	queue    *submission.Queue
	platform bridge.PlatformInfo
	now      func() time.Time
}

// NewRecorder creates a submission recorder.
func NewRecorder(state *store.Manager, queue *submission.Queue, platform bridge.PlatformInfo) *Recorder {
	return &Recorder{state: state, queue: queue, platform: platform, now: time.Now}
}

// OnSurveyCompleted records one completed survey.
func (r *Recorder) OnSurveyCompleted(ctx context.Context, msg CompletedSurvey) error {
	participantID, err := r.participantID(ctx)
	if err != nil {
		return err
	}

	os := ""
	if r.platform != nil {
		if info, err := r.platform.OperatingSystem(ctx); err == nil {
			os = info
		}
	}

	r.queue.Enqueue(submission.Record{
		ID:            uuid.NewString(),
		SurveyType:    msg.SurveyType,
		ParticipantID: participantID,
		Timestamp:     r.now(),
		OS:            os,
		Responses:     msg.Responses,
	})

	metrics.SubmissionsRecordedTotal.Inc()
	log.Info().Str("survey_type", msg.SurveyType).Msg("Completed survey recorded")
	return nil
}

// participantID returns the stable participant id, generating and persisting
// it on first need.
func (r *Recorder) participantID(ctx context.Context) (string, error) {
	st, err := r.state.Update(ctx, func(s *store.State) {
		if s.ParticipantID == "" {
			s.ParticipantID = newParticipantID()
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve participant id: %w", err)
	}
	return st.ParticipantID, nil
}

func newParticipantID() string {
	buf := make([]byte, participantIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand read failures are not recoverable at this layer.
		panic(fmt.Sprintf("failed to generate participant id: %v", err))
	}
	id := make([]byte, participantIDLength)
	for i, b := range buf {
		id[i] = participantIDAlphabet[int(b)%len(participantIDAlphabet)]
	}
	return string(id)
}
