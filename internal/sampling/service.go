package sampling

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/submission"
	"stealthcompany.com/cues/internal/timer"
)

// Deps collects everything the sampling service is wired to.
type Deps struct {
	State    *store.Manager
	Timers   *timer.Service
	Queue    *submission.Queue
	Tabs     bridge.Tabs
	Notifier bridge.Notifier
	Self     bridge.SelfManager
	Platform bridge.PlatformInfo

	ConsentPageURL string
	SetupPageURL   string
	SurveyPageURL  string
}

// Service ties the gate, engine, prompt lifecycle, and recorder together and
// dispatches lifecycle events (install, startup, timers) to them.
type Service struct {
	state    *store.Manager
	timers   *timer.Service
	queue    *submission.Queue
	self     bridge.SelfManager
	gate     *Gate
	engine   *Engine
	prompts  *PromptLifecycle
	recorder *Recorder
}

// New wires up the sampling service and subscribes it to timer firings.
func New(deps Deps) *Service {
	prompts := NewPromptLifecycle(deps.Notifier, deps.Timers)
	surveys := NewSurveyLoader(deps.State, deps.Tabs, deps.SurveyPageURL)

	s := &Service{
		state:    deps.State,
		timers:   deps.Timers,
		queue:    deps.Queue,
		self:     deps.Self,
		gate:     NewGate(deps.State, deps.Tabs, deps.Self, deps.ConsentPageURL, deps.SetupPageURL),
		engine:   NewEngine(deps.State, prompts, surveys, deps.Tabs, deps.ConsentPageURL),
		prompts:  prompts,
		recorder: NewRecorder(deps.State, deps.Queue, deps.Platform),
	}

	deps.Timers.Subscribe(s.onTimer)
	return s
}

// HandleInstall runs once when the sampling client is installed. Updates and
// other install reasons only re-evaluate onboarding; genuine installs also
// initialize the durable state and the long-lived timers.
func (s *Service) HandleInstall(ctx context.Context, reason string) error {
	if reason == "install" {
		_, err := s.state.Update(ctx, func(st *store.State) {
			st.Ready = false
			st.SurveysShownToday = 0
		})
		if err != nil {
			return err
		}

		// The client removes itself after the study window closes.
		s.timers.Create(TimerUninstall, timer.Options{Delay: UninstallDelay})
		s.armDailyReset()
		s.armQueueFlush()

		log.Info().Msg("Sampling state initialized on install")
	}

	return s.gate.EvaluateOnboarding(ctx)
}

// HandleStartup runs on every process startup.
func (s *Service) HandleStartup(ctx context.Context) error {
	s.armDailyReset()
	s.armQueueFlush()
	return s.gate.EvaluateOnboarding(ctx)
}

// OnDecisionEvent forwards a privileged decision notification to the engine.
func (s *Service) OnDecisionEvent(ctx context.Context, element Element, decision Decision) {
	s.engine.OnDecisionEvent(ctx, element, decision)
}

// OnNotificationClick resolves the live prompt from a participant click.
func (s *Service) OnNotificationClick(ctx context.Context, buttonIndex int) {
	s.prompts.HandleClick(ctx, buttonIndex)
}

// OnSurveyCompleted records a completed survey payload.
func (s *Service) OnSurveyCompleted(ctx context.Context, msg CompletedSurvey) error {
	return s.recorder.OnSurveyCompleted(ctx, msg)
}

// armDailyReset schedules the counter reset for the next local midnight and
// every 24 hours after that.
func (s *Service) armDailyReset() {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).Add(24 * time.Hour)
	s.timers.Create(TimerDailyReset, timer.Options{When: midnight, Period: DailyResetPeriod})
}

// armQueueFlush schedules the submission queue flush: first tick one minute
// out, then every twenty minutes.
func (s *Service) armQueueFlush() {
	s.timers.Create(TimerQueueFlush, timer.Options{Delay: QueueFlushDelay, Period: QueueFlushPeriod})
}

// onTimer dispatches named timer firings.
func (s *Service) onTimer(name string) {
	ctx := context.Background()

	switch name {
	case TimerUninstall:
		if err := s.self.Uninstall(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to uninstall after study window")
		}

	case TimerDailyReset:
		_, err := s.state.Update(ctx, func(st *store.State) {
			st.SurveysShownToday = 0
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to reset daily survey count")
		} else {
			log.Info().Msg("Daily survey count reset")
		}

	case TimerNotificationTimeout:
		s.prompts.HandleTimeout(ctx)

	case TimerQueueFlush:
		if err := s.queue.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("Submission queue flush failed")
		}
	}
}
