// Package store owns the durable participation state: consent, setup,
// readiness, participant id, and the daily survey counter. All mutation goes
// through the Manager, which serializes read-modify-write cycles so that
// independently-triggered handlers never interleave a get-then-set against
// the same keys.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Storage keys. The layout is flat key/value with no schema versioning.
const (
	KeyConsentStatus     = "consentStatus"
	KeySetupStatus       = "setupStatus"
	KeyReadyForSurveys   = "readyForSurveys"
	KeyParticipantID     = "participantId"
	KeySurveysShownToday = "surveysShownToday"
	KeyOpenSurveyTabID   = "openSurveyTabId"
)

// AllKeys lists every persisted key.
var AllKeys = []string{
	KeyConsentStatus,
	KeySetupStatus,
	KeyReadyForSurveys,
	KeyParticipantID,
	KeySurveysShownToday,
	KeyOpenSurveyTabID,
}

// ConsentStatus tracks the participant's consent decision. The progression is
// monotonic: unset -> pending -> granted or rejected.
type ConsentStatus string

const (
	ConsentUnset    ConsentStatus = ""
	ConsentPending  ConsentStatus = "pending"
	ConsentGranted  ConsentStatus = "granted"
	ConsentRejected ConsentStatus = "rejected"
)

// SetupStatus tracks the one-time demographic survey. Completed is only
// reachable after consent has been granted.
type SetupStatus string

const (
	SetupUnset     SetupStatus = ""
	SetupPending   SetupStatus = "pending"
	SetupCompleted SetupStatus = "completed"
)

// NoOpenTab is the OpenSurveyTabID value when no survey tab is tracked.
const NoOpenTab = -1

// State is a snapshot of the durable participation state.
type State struct {
	Consent           ConsentStatus
	Setup             SetupStatus
	Ready             bool
	ParticipantID     string
	SurveysShownToday int
	OpenSurveyTabID   int
}

// Backend is the raw key/value store underneath the Manager.
type Backend interface {
	// Get returns the values for the requested keys. Absent keys are simply
	// missing from the result map.
	Get(ctx context.Context, keys ...string) (map[string]interface{}, error)
	// Set upserts the given key/value pairs.
	Set(ctx context.Context, items map[string]interface{}) error
}

// Change describes a single key transition delivered to watchers.
type Change struct {
	Old interface{}
	New interface{}
}

// WatchFunc receives the diff of a committed update.
type WatchFunc func(changes map[string]Change)

// Manager serializes all reads and writes of the participation state and
// notifies watchers with per-key diffs after each committed update.
type Manager struct {
	backend Backend

	mu sync.Mutex // serializes Update cycles

	watchMu   sync.Mutex
	watchers  map[int]WatchFunc
	nextWatch int
}

// NewManager creates a state manager over the given backend.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend:  backend,
		watchers: make(map[int]WatchFunc),
	}
}

// Snapshot reads the current state without mutating it.
func (m *Manager) Snapshot(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// Update runs fn against the current state under the manager's lock and
// persists whatever fn changed. Watchers receive the diff after the write
// lands; they run outside the lock, so a watcher may itself call Update.
// The returned State is the post-update snapshot.
func (m *Manager) Update(ctx context.Context, fn func(*State)) (State, error) {
	m.mu.Lock()

	before, err := m.load(ctx)
	if err != nil {
		m.mu.Unlock()
		return State{}, err
	}

	after := before
	fn(&after)

	changes := diff(before, after)
	if len(changes) == 0 {
		m.mu.Unlock()
		return after, nil
	}

	items := make(map[string]interface{}, len(changes))
	for key, ch := range changes {
		items[key] = ch.New
	}
	if err := m.backend.Set(ctx, items); err != nil {
		m.mu.Unlock()
		return State{}, fmt.Errorf("failed to persist state update: %w", err)
	}
	m.mu.Unlock()

	m.notify(changes)
	return after, nil
}

// Watch registers a watcher for committed updates. The returned cancel
// function removes it; cancellation is positive, so a late notification never
// reaches a cancelled watcher.
func (m *Manager) Watch(fn WatchFunc) (cancel func()) {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = fn

	return func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		delete(m.watchers, id)
	}
}

func (m *Manager) notify(changes map[string]Change) {
	m.watchMu.Lock()
	fns := make([]WatchFunc, 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.watchMu.Unlock()

	for _, fn := range fns {
		fn(changes)
	}
}

func (m *Manager) load(ctx context.Context) (State, error) {
	values, err := m.backend.Get(ctx, AllKeys...)
	if err != nil {
		return State{}, fmt.Errorf("failed to read state: %w", err)
	}

	st := State{OpenSurveyTabID: NoOpenTab}
	if v, ok := values[KeyConsentStatus]; ok {
		st.Consent = ConsentStatus(asString(v))
	}
	if v, ok := values[KeySetupStatus]; ok {
		st.Setup = SetupStatus(asString(v))
	}
	if v, ok := values[KeyReadyForSurveys]; ok {
		st.Ready = asBool(v)
	}
	if v, ok := values[KeyParticipantID]; ok {
		st.ParticipantID = asString(v)
	}
	if v, ok := values[KeySurveysShownToday]; ok {
		st.SurveysShownToday = asInt(v)
	}
	if v, ok := values[KeyOpenSurveyTabID]; ok {
		st.OpenSurveyTabID = asInt(v)
	}
	return st, nil
}

func diff(before, after State) map[string]Change {
	changes := make(map[string]Change)
	if before.Consent != after.Consent {
		changes[KeyConsentStatus] = Change{Old: string(before.Consent), New: string(after.Consent)}
	}
	if before.Setup != after.Setup {
		changes[KeySetupStatus] = Change{Old: string(before.Setup), New: string(after.Setup)}
	}
	if before.Ready != after.Ready {
		changes[KeyReadyForSurveys] = Change{Old: before.Ready, New: after.Ready}
	}
	if before.ParticipantID != after.ParticipantID {
		changes[KeyParticipantID] = Change{Old: before.ParticipantID, New: after.ParticipantID}
	}
	if before.SurveysShownToday != after.SurveysShownToday {
		changes[KeySurveysShownToday] = Change{Old: before.SurveysShownToday, New: after.SurveysShownToday}
	}
	if before.OpenSurveyTabID != after.OpenSurveyTabID {
		changes[KeyOpenSurveyTabID] = Change{Old: before.OpenSurveyTabID, New: after.OpenSurveyTabID}
	}
	return changes
}

// Values coming back from a JSON document store arrive as float64 or
// json.Number, so the decoders tolerate those shapes.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
