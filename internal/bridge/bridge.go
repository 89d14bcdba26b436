// Package bridge talks to the browser-side collaborator that renders tabs
// and notifications for the sampling service. The core only depends on the
// interfaces here; the HTTP client is the production implementation.
package bridge

import "context"

// Notification describes a survey prompt to be shown by the browser.
type Notification struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	IconURL string   `json:"iconUrl,omitempty"`
	Buttons []string `json:"buttons,omitempty"`
}

// Tabs opens and closes browser tabs.
type Tabs interface {
	CreateTab(ctx context.Context, url string) (int, error)
	RemoveTab(ctx context.Context, tabID int) error
}

// Notifier shows and clears notifications keyed by tag. Creating a
// notification under an existing tag replaces it.
type Notifier interface {
	CreateNotification(ctx context.Context, tag string, n Notification) (string, error)
	ClearNotification(ctx context.Context, tag string) error
}

// SelfManager uninstalls the sampling client from the browser.
type SelfManager interface {
	Uninstall(ctx context.Context) error
}

// PlatformInfo exposes host details consumed by survey metadata.
type PlatformInfo interface {
	OperatingSystem(ctx context.Context) (string, error)
}
