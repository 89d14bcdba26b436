// Package sampling implements the experience sampling core: the consent and
// setup gate, the eligibility and throttle engine, the survey prompt
// lifecycle, survey tab construction, and the submission recorder.
package sampling

import "time"

// Throttling and lifecycle constants.
const (
	MaxSurveysPerDay    = 2
	NotificationTimeout = 10 * time.Minute
	UninstallDelay      = 120 * 24 * time.Hour
	QueueFlushDelay     = 1 * time.Minute
	QueueFlushPeriod    = 20 * time.Minute
	DailyResetPeriod    = 24 * time.Hour
)

// Timer names.
const (
	TimerUninstall           = "uninstallAlarm"
	TimerDailyReset          = "surveyCountReset"
	TimerNotificationTimeout = "notificationTimeout"
	TimerQueueFlush          = "submissionQueueFlush"
)

// NotificationTag is the canonical tag for the survey prompt. Creating a new
// prompt under the same tag implicitly supersedes the old one on the browser
// side as well.
const NotificationTag = "chromeSurvey"

// Prompt copy.
const (
	notificationTitle       = "Take a Chrome user experience survey!"
	notificationBody        = "Your feedback makes Chrome better."
	notificationButton      = "Take survey!"
	notificationConsentLink = "What is this?"
)

// Element is the browser element a participant made a decision about.
type Element struct {
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
}

// Decision is what the participant chose to do about the element.
type Decision struct {
	Name string `json:"name"`
}
