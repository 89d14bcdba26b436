package sampling

import (
	"context"
	"fmt"
	"sync"

	"stealthcompany.com/cues/internal/bridge"
)

// fakeBrowser implements the bridge interfaces in memory.
type fakeBrowser struct {
	mu sync.Mutex

	nextTabID   int
	openTabs    map[int]string
	createdURLs []string
	removedTabs []int
	removeErr   error

	notifications map[string]bridge.Notification
	notifCreates  int

	uninstalled bool
	os          string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		nextTabID:     100,
		openTabs:      make(map[int]string),
		notifications: make(map[string]bridge.Notification),
		os:            "linux",
	}
}

func (f *fakeBrowser) CreateTab(ctx context.Context, url string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTabID++
	f.openTabs[f.nextTabID] = url
	f.createdURLs = append(f.createdURLs, url)
	return f.nextTabID, nil
}

func (f *fakeBrowser) RemoveTab(ctx context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.openTabs[tabID]; !ok {
		return fmt.Errorf("no such tab %d", tabID)
	}
	delete(f.openTabs, tabID)
	f.removedTabs = append(f.removedTabs, tabID)
	return nil
}

func (f *fakeBrowser) CreateNotification(ctx context.Context, tag string, n bridge.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[tag] = n
	f.notifCreates++
	return fmt.Sprintf("notif-%d", f.notifCreates), nil
}

func (f *fakeBrowser) ClearNotification(ctx context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notifications[tag]; !ok {
		return fmt.Errorf("no such notification %s", tag)
	}
	delete(f.notifications, tag)
	return nil
}

func (f *fakeBrowser) Uninstall(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uninstalled = true
	return nil
}

func (f *fakeBrowser) OperatingSystem(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.os, nil
}

func (f *fakeBrowser) tabCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.openTabs)
}

func (f *fakeBrowser) liveNotifications() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifications)
}

func (f *fakeBrowser) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.createdURLs))
	copy(out, f.createdURLs)
	return out
}

func (f *fakeBrowser) wasUninstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uninstalled
}
