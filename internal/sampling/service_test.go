package sampling

import (
	"context"
	"testing"
	"time"

	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/submission"
	"stealthcompany.com/cues/internal/timer"
)

type serviceFixture struct {
	svc     *Service
	state   *store.Manager
	browser *fakeBrowser
	timers  *timer.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	state := store.NewManager(store.NewMemoryBackend())
	browser := newFakeBrowser()
	timers := timer.NewService()
	t.Cleanup(timers.Stop)

	svc := New(Deps{
		State:          state,
		Timers:         timers,
		Queue:          submission.NewQueue("http://unused.invalid", time.Second),
		Tabs:           browser,
		Notifier:       browser,
		Self:           browser,
		Platform:       browser,
		ConsentPageURL: testConsentURL,
		SetupPageURL:   testSetupURL,
		SurveyPageURL:  testSurveyURL,
	})

	return &serviceFixture{svc: svc, state: state, browser: browser, timers: timers}
}

func (f *serviceFixture) makeReady(t *testing.T) {
	t.Helper()
	_, err := f.state.Update(context.Background(), func(s *store.State) {
		s.Consent = store.ConsentGranted
		s.Setup = store.SetupCompleted
		s.Ready = true
	})
	if err != nil {
		t.Fatalf("Failed to seed ready state: %v", err)
	}
}

func TestInstallInitializesStateAndOpensConsent(t *testing.T) {
	f := newServiceFixture(t)

	if err := f.svc.HandleInstall(context.Background(), "install"); err != nil {
		t.Fatalf("HandleInstall failed: %v", err)
	}

	st, _ := f.state.Snapshot(context.Background())
	if st.Ready {
		t.Error("Expected not ready on fresh install")
	}
	if st.SurveysShownToday != 0 {
		t.Errorf("Expected zeroed counter, got %d", st.SurveysShownToday)
	}

	urls := f.browser.urls()
	if len(urls) != 1 || urls[0] != testConsentURL {
		t.Errorf("Expected consent page on install, got %v", urls)
	}
}

func TestInstallReasonUpdateSkipsStateInit(t *testing.T) {
	f := newServiceFixture(t)
	f.makeReady(t)

	_, err := f.state.Update(context.Background(), func(s *store.State) { s.SurveysShownToday = 1 })
	if err != nil {
		t.Fatalf("Failed to seed counter: %v", err)
	}

	if err := f.svc.HandleInstall(context.Background(), "update"); err != nil {
		t.Fatalf("HandleInstall failed: %v", err)
	}

	st, _ := f.state.Snapshot(context.Background())
	if !st.Ready || st.SurveysShownToday != 1 {
		t.Errorf("Browser update must not reset participation state: %+v", st)
	}
}

func TestUninstallTimerDispatch(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.onTimer(TimerUninstall)

	if !f.browser.wasUninstalled() {
		t.Error("Expected uninstall on timer firing")
	}
}

func TestDailyResetTimerZeroesCounterOnly(t *testing.T) {
	f := newServiceFixture(t)
	f.makeReady(t)

	_, err := f.state.Update(context.Background(), func(s *store.State) { s.SurveysShownToday = 2 })
	if err != nil {
		t.Fatalf("Failed to seed counter: %v", err)
	}

	// Unrelated timers leave the counter alone.
	f.svc.onTimer(TimerQueueFlush)
	f.svc.onTimer("someOtherAlarm")
	st, _ := f.state.Snapshot(context.Background())
	if st.SurveysShownToday != 2 {
		t.Fatalf("Counter reset by the wrong timer: %d", st.SurveysShownToday)
	}

	f.svc.onTimer(TimerDailyReset)
	st, _ = f.state.Snapshot(context.Background())
	if st.SurveysShownToday != 0 {
		t.Errorf("Expected counter reset to 0, got %d", st.SurveysShownToday)
	}
	if !st.Ready {
		t.Error("Daily reset must not touch readiness")
	}
}

func TestResetReopensThrottle(t *testing.T) {
	f := newServiceFixture(t)
	f.makeReady(t)

	el := Element{Name: "ssl_blocking_page", Destination: "https://example.com/"}
	dec := Decision{Name: "proceed"}

	f.svc.OnDecisionEvent(context.Background(), el, dec)
	f.svc.OnDecisionEvent(context.Background(), el, dec)
	f.svc.OnDecisionEvent(context.Background(), el, dec) // capped

	if f.browser.notifCreates != 2 {
		t.Fatalf("Expected 2 prompts before reset, got %d", f.browser.notifCreates)
	}

	f.svc.onTimer(TimerDailyReset)
	f.svc.OnDecisionEvent(context.Background(), el, dec)

	if f.browser.notifCreates != 3 {
		t.Errorf("Expected prompting to resume after reset, got %d", f.browser.notifCreates)
	}
}

func TestNotificationTimeoutTimerExpiresPrompt(t *testing.T) {
	f := newServiceFixture(t)
	f.makeReady(t)

	f.svc.OnDecisionEvent(context.Background(),
		Element{Name: "extension_install_dialog"}, Decision{Name: "proceed"})
	if f.browser.liveNotifications() != 1 {
		t.Fatal("Expected a live prompt")
	}

	f.svc.onTimer(TimerNotificationTimeout)

	if f.browser.liveNotifications() != 0 {
		t.Error("Expected prompt cleared on timeout")
	}
	if f.browser.tabCount() != 0 {
		t.Error("Expected no survey tab on timeout")
	}
}

func TestClickRoutesThroughService(t *testing.T) {
	f := newServiceFixture(t)
	f.makeReady(t)

	f.svc.OnDecisionEvent(context.Background(),
		Element{Name: "extension_install_dialog"}, Decision{Name: "proceed"})

	f.svc.OnNotificationClick(context.Background(), 0)

	urls := f.browser.urls()
	if len(urls) != 1 {
		t.Fatalf("Expected one survey tab, got %v", urls)
	}
}
