package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is the HTTP implementation of the browser bridge interfaces.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a bridge client against the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// CreateTab opens a new browser tab and returns its id.
func (c *Client) CreateTab(ctx context.Context, url string) (int, error) {
	var result struct {
		ID int `json:"id"`
	}
	err := c.post(ctx, "/tabs", map[string]string{"url": url}, &result)
	if err != nil {
		return 0, fmt.Errorf("failed to create tab: %w", err)
	}

	log.Info().Int("tab_id", result.ID).Str("url", url).Msg("Tab opened")
	return result.ID, nil
}

// RemoveTab closes a browser tab.
func (c *Client) RemoveTab(ctx context.Context, tabID int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/tabs/%d", c.baseURL, tabID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to remove tab %d: %w", tabID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bridge returned status %d removing tab %d", resp.StatusCode, tabID)
	}
	return nil
}

// CreateNotification shows a notification under the given tag.
func (c *Client) CreateNotification(ctx context.Context, tag string, n Notification) (string, error) {
	payload := struct {
		Tag string `json:"tag"`
		Notification
	}{Tag: tag, Notification: n}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/notifications", payload, &result); err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	return result.ID, nil
}

// ClearNotification dismisses the notification with the given tag.
func (c *Client) ClearNotification(ctx context.Context, tag string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/notifications/"+tag, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to clear notification %s: %w", tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bridge returned status %d clearing notification %s", resp.StatusCode, tag)
	}
	return nil
}

// Uninstall asks the browser to remove the sampling client.
func (c *Client) Uninstall(ctx context.Context) error {
	if err := c.post(ctx, "/self/uninstall", struct{}{}, nil); err != nil {
		return fmt.Errorf("failed to request uninstall: %w", err)
	}

	log.Info().Msg("Uninstall requested")
	return nil
}

// OperatingSystem returns the browser host's operating system.
func (c *Client) OperatingSystem(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/platform", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch platform info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bridge returned status %d for platform info", resp.StatusCode)
	}

	var result struct {
		OS string `json:"os"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse platform info: %w", err)
	}
	return result.OS, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
