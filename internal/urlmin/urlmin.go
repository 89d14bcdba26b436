// Package urlmin reduces visited URLs to a privacy-safe minimal form before
// they are embedded in survey page addresses.
package urlmin

import (
	"fmt"
	"net/url"
)

// Minimal strips a visited URL down to scheme and host. Credentials, path,
// query, and fragment are all dropped.
func Minimal(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", raw)
	}

	return parsed.Scheme + "://" + parsed.Host, nil
}
