package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/sampling"
	"stealthcompany.com/cues/internal/store"
)

// Handlers serves the sampling service's HTTP surface.
type Handlers struct {
	svc   *sampling.Service
	state *store.Manager
}

// decisionRequest is one privileged decision notification.
type decisionRequest struct {
	Element  sampling.Element  `json:"element"`
	Decision sampling.Decision `json:"decision"`
}

// clickRequest is a notification click callback.
type clickRequest struct {
	ButtonIndex int `json:"buttonIndex"`
}

// statusRequest carries an onboarding page's status report.
type statusRequest struct {
	Status string `json:"status"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DecisionEvent accepts a decision event and hands it to the engine. The
// engine's silent no-op semantics mean the endpoint always answers 202 for
// well-formed payloads.
func (h *Handlers) DecisionEvent(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if req.Element.Name == "" || req.Decision.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "element.name and decision.name are required"})
		return
	}

	h.svc.OnDecisionEvent(r.Context(), req.Element, req.Decision)
	w.WriteHeader(http.StatusAccepted)
}

// NotificationClick resolves the live prompt from a click callback.
func (h *Handlers) NotificationClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	h.svc.OnNotificationClick(r.Context(), req.ButtonIndex)
	w.WriteHeader(http.StatusNoContent)
}

// SurveyCompleted records a completed survey payload.
func (h *Handlers) SurveyCompleted(w http.ResponseWriter, r *http.Request) {
	var msg sampling.CompletedSurvey
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if msg.SurveyType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "survey_type is required"})
		return
	}

	if err := h.svc.OnSurveyCompleted(r.Context(), msg); err != nil {
		log.Error().Err(err).Msg("Failed to record completed survey")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record survey"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ConsentStatus records the consent page's outcome. Consent is write-once for
// granted and rejected.
func (h *Handlers) ConsentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	status := store.ConsentStatus(req.Status)
	switch status {
	case store.ConsentPending, store.ConsentGranted, store.ConsentRejected:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid consent status"})
		return
	}

	conflict := false
	_, err := h.state.Update(r.Context(), func(s *store.State) {
		if s.Consent == store.ConsentGranted || s.Consent == store.ConsentRejected {
			conflict = true
			return
		}
		s.Consent = status
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update consent status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update consent status"})
		return
	}
	if conflict {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "consent already resolved"})
		return
	}

	log.Info().Str("status", req.Status).Msg("Consent status updated")
	w.WriteHeader(http.StatusNoContent)
}

// SetupStatus records the setup survey page's progress. Completion requires
// granted consent.
func (h *Handlers) SetupStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	status := store.SetupStatus(req.Status)
	switch status {
	case store.SetupPending, store.SetupCompleted:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid setup status"})
		return
	}

	conflict := ""
	_, err := h.state.Update(r.Context(), func(s *store.State) {
		if status == store.SetupCompleted && s.Consent != store.ConsentGranted {
			conflict = "setup cannot complete before consent is granted"
			return
		}
		if s.Setup == store.SetupCompleted {
			conflict = "setup already completed"
			return
		}
		s.Setup = status
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update setup status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update setup status"})
		return
	}
	if conflict != "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": conflict})
		return
	}

	log.Info().Str("status", req.Status).Msg("Setup status updated")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
