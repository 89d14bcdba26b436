// Package taxonomy maps raw browser event and decision names onto the
// closed set of categories the sampling engine understands.
package taxonomy

import "strings"

// EventType classifies the browser element a participant made a decision about.
type EventType int

const (
	EventUnknown EventType = iota
	EventSSLOverridable
	EventSSLNonOverridable
	EventMalware
	EventPhishing
	EventHarmful
	EventSBOther
	EventDownloadMalicious
	EventDownloadDangerous
	EventDownloadDangerPrompt
	EventExtensionInstall
	EventExtensionInlineInstall
	EventExtensionBundle
	EventExtensionOther
)

// String returns the wire-level name of the event type.
func (e EventType) String() string {
	switch e {
	case EventSSLOverridable:
		return "ssl_overridable"
	case EventSSLNonOverridable:
		return "ssl_nonoverridable"
	case EventMalware:
		return "malware"
	case EventPhishing:
		return "phishing"
	case EventHarmful:
		return "harmful"
	case EventSBOther:
		return "sb_other"
	case EventDownloadMalicious:
		return "download_malicious"
	case EventDownloadDangerous:
		return "download_dangerous"
	case EventDownloadDangerPrompt:
		return "download_danger_prompt"
	case EventExtensionInstall:
		return "extension_install"
	case EventExtensionInlineInstall:
		return "extension_inline_install"
	case EventExtensionBundle:
		return "extension_bundle"
	case EventExtensionOther:
		return "extension_other"
	default:
		return "unknown"
	}
}

// SurveyEligible reports whether a survey may be offered for this event type.
func (e EventType) SurveyEligible() bool {
	switch e {
	case EventSSLOverridable, EventSSLNonOverridable, EventMalware, EventPhishing,
		EventExtensionInstall, EventExtensionInlineInstall, EventExtensionBundle:
		return true
	}
	return false
}

// eventNames maps the raw element names delivered by the privileged decision
// source onto event types.
var eventNames = map[string]EventType{
	"ssl_blocking_page":            EventSSLOverridable,
	"ssl_overridable":              EventSSLOverridable,
	"ssl_nonoverridable_page":      EventSSLNonOverridable,
	"ssl_nonoverridable":           EventSSLNonOverridable,
	"safebrowsing_malware":         EventMalware,
	"malware_interstitial":         EventMalware,
	"safebrowsing_phishing":        EventPhishing,
	"phishing_interstitial":        EventPhishing,
	"safebrowsing_harmful":         EventHarmful,
	"safebrowsing_other":           EventSBOther,
	"download_malicious":           EventDownloadMalicious,
	"download_dangerous":           EventDownloadDangerous,
	"download_danger_prompt":       EventDownloadDangerPrompt,
	"extension_install_dialog":     EventExtensionInstall,
	"extension_inline_install":     EventExtensionInlineInstall,
	"extension_bundle_install":     EventExtensionBundle,
	"extension_permissions_dialog": EventExtensionOther,
	"extension_uninstall_dialog":   EventExtensionOther,
	"external_extension_dialog":    EventExtensionOther,
}

// FindEventType classifies a raw element name. Names that do not appear in the
// taxonomy come back as EventUnknown.
func FindEventType(name string) EventType {
	if et, ok := eventNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return et
	}
	return EventUnknown
}

// DecisionType classifies what the participant chose to do.
type DecisionType string

const (
	DecisionProceed DecisionType = "proceed"
	DecisionDeny    DecisionType = "deny"
	DecisionIgnore  DecisionType = "ignore"
)

// FindDecisionType classifies a raw decision name.
func FindDecisionType(name string) DecisionType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "proceed", "accept", "allow":
		return DecisionProceed
	case "deny", "dont_proceed", "cancel":
		return DecisionDeny
	default:
		return DecisionIgnore
	}
}

// SurveyLocation identifies which question set the survey page should render.
type SurveyLocation string

const (
	SurveySSLOverridableProceed   SurveyLocation = "ssl-overridable-proceed"
	SurveySSLOverridableNoProceed SurveyLocation = "ssl-overridable-noproceed"
	SurveySSLNonOverridable       SurveyLocation = "ssl-nonoverridable"
	SurveyMalwareProceed          SurveyLocation = "malware-proceed"
	SurveyMalwareNoProceed        SurveyLocation = "malware-noproceed"
	SurveyPhishingProceed         SurveyLocation = "phishing-proceed"
	SurveyPhishingNoProceed       SurveyLocation = "phishing-noproceed"
	SurveyExtensionProceed        SurveyLocation = "extension-proceed"
	SurveyExtensionNoProceed      SurveyLocation = "extension-noproceed"
)
