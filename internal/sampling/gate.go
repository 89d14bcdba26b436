package sampling

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/store"
)

// Gate drives the one-time onboarding sequence: consent first, then the
// demographic setup survey. Only when both are satisfied does the durable
// ready flag flip, which is what unlocks survey prompting.
type Gate struct {
	state *store.Manager
	tabs  bridge.Tabs
	self  bridge.SelfManager

	consentPageURL string
	setupPageURL   string

	watchMu     sync.Mutex
	watchCancel func()
}

// NewGate creates the consent/setup gate.
func NewGate(state *store.Manager, tabs bridge.Tabs, self bridge.SelfManager, consentPageURL, setupPageURL string) *Gate {
	return &Gate{
		state:          state,
		tabs:           tabs,
		self:           self,
		consentPageURL: consentPageURL,
		setupPageURL:   setupPageURL,
	}
}

// EvaluateOnboarding re-derives the onboarding step from persisted state and
// takes the next action. It is idempotent and safe to invoke redundantly; it
// runs on install and on every startup.
func (g *Gate) EvaluateOnboarding(ctx context.Context) error {
	st, err := g.state.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to evaluate onboarding: %w", err)
	}

	switch st.Consent {
	case store.ConsentUnset, store.ConsentPending:
		// Consent can be granted in this run while setup finishes later, so
		// watch for setup completion before opening the consent page.
		g.watchForSetupCompletion()
		if _, err := g.tabs.CreateTab(ctx, g.consentPageURL); err != nil {
			return fmt.Errorf("failed to open consent page: %w", err)
		}
		log.Info().Msg("Consent page opened")
		return nil

	case store.ConsentRejected:
		log.Info().Msg("Consent rejected, uninstalling")
		return g.self.Uninstall(ctx)

	case store.ConsentGranted:
		switch st.Setup {
		case store.SetupUnset, store.SetupPending:
			if _, err := g.tabs.CreateTab(ctx, g.setupPageURL); err != nil {
				return fmt.Errorf("failed to open setup page: %w", err)
			}
			log.Info().Msg("Setup survey page opened")
			return nil
		case store.SetupCompleted:
			return g.setReady(ctx)
		}
	}
	return nil
}

// watchForSetupCompletion registers a one-time watcher that flips the ready
// flag when the setup status transitions to completed. Covers the case where
// consent was granted in a prior run but setup was left incomplete.
func (g *Gate) watchForSetupCompletion() {
	g.watchMu.Lock()
	defer g.watchMu.Unlock()

	if g.watchCancel != nil {
		return // already watching
	}

	var once sync.Once
	g.watchCancel = g.state.Watch(func(changes map[string]store.Change) {
		ch, ok := changes[store.KeySetupStatus]
		if !ok || ch.New != string(store.SetupCompleted) {
			return
		}
		once.Do(func() {
			if err := g.setReady(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to mark ready after setup completion")
			}
			g.cancelWatch()
		})
	})
}

func (g *Gate) cancelWatch() {
	g.watchMu.Lock()
	defer g.watchMu.Unlock()
	if g.watchCancel != nil {
		g.watchCancel()
		g.watchCancel = nil
	}
}

func (g *Gate) setReady(ctx context.Context) error {
	_, err := g.state.Update(ctx, func(s *store.State) {
		s.Ready = true
	})
	if err != nil {
		return fmt.Errorf("failed to set ready flag: %w", err)
	}
	log.Info().Msg("Participant ready for surveys")
	return nil
}
