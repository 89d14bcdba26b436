package sampling

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/taxonomy"
)

// Engine decides whether an incoming decision event earns a survey prompt:
// the event type must be survey-eligible, the participant must be ready, and
// the daily cap must not be reached.
type Engine struct {
	state   *store.Manager
	prompts *PromptLifecycle
	surveys *SurveyLoader
	tabs    bridge.Tabs

	consentPageURL string
}

// NewEngine creates the eligibility and throttle engine.
func NewEngine(state *store.Manager, prompts *PromptLifecycle, surveys *SurveyLoader, tabs bridge.Tabs, consentPageURL string) *Engine {
	return &Engine{
		state:          state,
		prompts:        prompts,
		surveys:        surveys,
		tabs:           tabs,
		consentPageURL: consentPageURL,
	}
}

// OnDecisionEvent handles one privileged decision notification. Ineligible
// events, not-ready participants, and capped days are all silent no-ops.
func (e *Engine) OnDecisionEvent(ctx context.Context, element Element, decision Decision) {
	et := taxonomy.FindEventType(element.Name)
	if !et.SurveyEligible() {
		metrics.RecordDecision(et.String(), "ineligible")
		return
	}

	st, err := e.state.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read state for decision event")
		return
	}
	if !st.Ready {
		metrics.RecordDecision(et.String(), "not_ready")
		return
	}
	if st.SurveysShownToday >= MaxSurveysPerDay {
		metrics.RecordDecision(et.String(), "throttled")
		return
	}

	timeShown := time.Now()
	err = e.prompts.Arm(ctx,
		func(ctx context.Context, timeClicked time.Time) {
			if err := e.surveys.Load(ctx, element, decision, timeShown, timeClicked); err != nil {
				log.Error().Err(err).Str("element", element.Name).Msg("Failed to load survey")
			}
		},
		func(ctx context.Context) {
			if _, err := e.tabs.CreateTab(ctx, e.consentPageURL); err != nil {
				log.Error().Err(err).Msg("Failed to open consent info page")
			}
		},
	)
	if err != nil {
		log.Error().Err(err).Str("element", element.Name).Msg("Failed to arm survey prompt")
		return
	}

	// The prompt counts against the cap as soon as it is armed, whether or
	// not the participant ever responds.
	_, err = e.state.Update(ctx, func(s *store.State) {
		s.SurveysShownToday++
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to increment daily survey count")
	}

	metrics.RecordDecision(et.String(), "prompted")
	log.Info().
		Str("event_type", et.String()).
		Str("decision", decision.Name).
		Int("surveys_shown_today", st.SurveysShownToday+1).
		Msg("Survey prompt offered")
}
