package sampling

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/bridge"
	"stealthcompany.com/cues/internal/metrics"
	"stealthcompany.com/cues/internal/store"
	"stealthcompany.com/cues/internal/taxonomy"
	"stealthcompany.com/cues/internal/urlmin"
)

// ErrUnknownEventType signals that an unclassifiable event reached survey
// construction. That is a programming error upstream, not a user condition;
// known-but-excluded event types return silently instead.
var ErrUnknownEventType = errors.New("unknown event type")

// SurveyLoader builds and opens survey tabs for resolved decisions.
type SurveyLoader struct {
	state         *store.Manager
	tabs          bridge.Tabs
	surveyPageURL string
}

// NewSurveyLoader creates a survey loader.
func NewSurveyLoader(state *store.Manager, tabs bridge.Tabs, surveyPageURL string) *SurveyLoader {
	return &SurveyLoader{state: state, tabs: tabs, surveyPageURL: surveyPageURL}
}

// Load re-checks readiness and the decision, resolves the survey location for
// the (event type, decision) pair, and opens the survey page in a new tab,
// replacing any previously tracked survey tab.
func (l *SurveyLoader) Load(ctx context.Context, element Element, decision Decision, timeShown, timeClicked time.Time) error {
	st, err := l.state.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if !st.Ready {
		// Readiness can flip between prompt and click.
		return nil
	}

	dt := taxonomy.FindDecisionType(decision.Name)
	if dt != taxonomy.DecisionProceed && dt != taxonomy.DecisionDeny {
		return nil
	}

	et := taxonomy.FindEventType(element.Name)
	location, needsVisitURL, err := resolveSurveyLocation(et, dt, element.Name)
	if err != nil {
		return err
	}
	if location == "" {
		return nil
	}

	openURL := l.surveyPageURL + "?js=" + string(location)
	if needsVisitURL {
		visitURL, err := urlmin.Minimal(element.Destination)
		if err != nil {
			// A required visit URL that cannot be minimized suppresses the
			// survey silently.
			return nil
		}
		openURL += "&url=" + url.QueryEscape(visitURL)
	}

	tabID, err := l.tabs.CreateTab(ctx, openURL)
	if err != nil {
		return fmt.Errorf("failed to open survey tab: %w", err)
	}

	var previousTab int
	_, err = l.state.Update(ctx, func(s *store.State) {
		previousTab = s.OpenSurveyTabID
		s.OpenSurveyTabID = tabID
	})
	if err != nil {
		return fmt.Errorf("failed to track survey tab: %w", err)
	}

	if previousTab != store.NoOpenTab && previousTab != tabID {
		if err := l.tabs.RemoveTab(ctx, previousTab); err != nil {
			// The old tab may already be closed.
			log.Debug().Err(err).Int("tab_id", previousTab).Msg("Failed to close stale survey tab")
		}
	}

	metrics.RecordSurveyTab(string(location))
	log.Info().
		Str("location", string(location)).
		Time("time_shown", timeShown).
		Time("time_clicked", timeClicked).
		Msg("Survey tab opened")
	return nil
}

// resolveSurveyLocation maps an (event type, decision) pair onto the survey
// location and whether the survey needs the visited URL. An empty location
// with nil error means the event is known but not surveyed.
func resolveSurveyLocation(et taxonomy.EventType, dt taxonomy.DecisionType, rawName string) (taxonomy.SurveyLocation, bool, error) {
	proceed := dt == taxonomy.DecisionProceed

	switch et {
	case taxonomy.EventSSLOverridable:
		if proceed {
			return taxonomy.SurveySSLOverridableProceed, true, nil
		}
		return taxonomy.SurveySSLOverridableNoProceed, true, nil

	case taxonomy.EventSSLNonOverridable:
		return taxonomy.SurveySSLNonOverridable, true, nil

	case taxonomy.EventMalware:
		if proceed {
			return taxonomy.SurveyMalwareProceed, true, nil
		}
		return taxonomy.SurveyMalwareNoProceed, true, nil

	case taxonomy.EventPhishing:
		if proceed {
			return taxonomy.SurveyPhishingProceed, true, nil
		}
		return taxonomy.SurveyPhishingNoProceed, true, nil

	case taxonomy.EventExtensionInstall, taxonomy.EventExtensionInlineInstall, taxonomy.EventExtensionBundle:
		if proceed {
			return taxonomy.SurveyExtensionProceed, false, nil
		}
		return taxonomy.SurveyExtensionNoProceed, false, nil

	case taxonomy.EventHarmful, taxonomy.EventSBOther, taxonomy.EventDownloadMalicious,
		taxonomy.EventDownloadDangerous, taxonomy.EventDownloadDangerPrompt, taxonomy.EventExtensionOther:
		// Known but never surveyed.
		return "", false, nil

	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownEventType, rawName)
	}
}
