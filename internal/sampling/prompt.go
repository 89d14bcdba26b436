package sampling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/timer"
)

// PromptState is the explicit prompt lifecycle state.
type PromptState int

const (
	// PromptIdle means no prompt is live.
	PromptIdle PromptState = iota
	// PromptArmed means a prompt is visible and its timeout timer is pending.
	PromptArmed
)

// AcceptFunc runs when the participant chooses the primary prompt action.
type AcceptFunc func(ctx context.Context, timeClicked time.Time)

// DeferFunc runs when the participant chooses the secondary (consent info)
// action.
type DeferFunc func(ctx context.Context)

// PromptLifecycle manages the single outstanding survey prompt. Transitions:
// Idle -> Armed -> {accepted, deferred, expired, superseded} -> Idle. Every
// terminal transition clears both the visible notification and the timeout
// timer; a timer that fires after dismissal finds the state Idle and does
// nothing.
type PromptLifecycle struct {
	notifier bridge.Notifier
	timers   *timer.Service

	mu         sync.Mutex
	state      PromptState
	generation int
	onAccept   AcceptFunc
	onDefer    DeferFunc
}

// NewPromptLifecycle creates an idle prompt lifecycle.
func NewPromptLifecycle(notifier bridge.Notifier, timers *timer.Service) *PromptLifecycle {
	return &PromptLifecycle{notifier: notifier, timers: timers}
}

// State returns the current lifecycle state.
func (p *PromptLifecycle) State() PromptState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Arm shows a new prompt, dismissing any prior one first. The accept and
// defer callbacks belong to this arming only; a superseded prompt's callbacks
// are dropped.
func (p *PromptLifecycle) Arm(ctx context.Context, onAccept AcceptFunc, onDefer DeferFunc) error {
	p.mu.Lock()
	if p.state == PromptArmed {
		p.dismissLocked(ctx, "superseded")
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	_, err := p.notifier.CreateNotification(ctx, NotificationTag, bridge.Notification{
		Title:   notificationTitle,
		Message: notificationBody,
		Buttons: []string{notificationButton, notificationConsentLink},
	})
	if err != nil {
		return fmt.Errorf("failed to create survey prompt: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		// A newer arming raced past this one; its prompt owns the tag now.
		return nil
	}
	p.state = PromptArmed
	p.onAccept = onAccept
	p.onDefer = onDefer
	p.timers.Create(TimerNotificationTimeout, timer.Options{Delay: NotificationTimeout})

	log.Info().Msg("Survey prompt armed")
	return nil
}

// HandleClick resolves the armed prompt from a participant click. Button
// index 1 is the consent info link; anything else is the primary action.
func (p *PromptLifecycle) HandleClick(ctx context.Context, buttonIndex int) {
	p.mu.Lock()
	if p.state != PromptArmed {
		p.mu.Unlock()
		return
	}
	onAccept := p.onAccept
	onDefer := p.onDefer

	if buttonIndex == 1 {
		p.dismissLocked(ctx, "deferred")
		p.mu.Unlock()
		if onDefer != nil {
			onDefer(ctx)
		}
		return
	}

	timeClicked := time.Now()
	p.dismissLocked(ctx, "accepted")
	p.mu.Unlock()
	if onAccept != nil {
		onAccept(ctx, timeClicked)
	}
}

// HandleTimeout expires the armed prompt. A stray firing against an already
// dismissed prompt is a no-op.
func (p *PromptLifecycle) HandleTimeout(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PromptArmed {
		return
	}
	p.dismissLocked(ctx, "expired")
}

// Dismiss force-clears the prompt regardless of state.
func (p *PromptLifecycle) Dismiss(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PromptArmed {
		return
	}
	p.dismissLocked(ctx, "dismissed")
}

// dismissLocked clears the notification and its timeout timer and returns the
// lifecycle to Idle. Callers hold p.mu.
func (p *PromptLifecycle) dismissLocked(ctx context.Context, reason string) {
	if err := p.notifier.ClearNotification(ctx, NotificationTag); err != nil {
		// Best-effort; the notification may already be gone.
		log.Debug().Err(err).Msg("Failed to clear survey prompt")
	}
	p.timers.Clear(TimerNotificationTimeout)
	p.state = PromptIdle
	p.onAccept = nil
	p.onDefer = nil

	metrics.RecordPromptResult(reason)
	log.Info().Str("reason", reason).Msg("Survey prompt dismissed")
}
