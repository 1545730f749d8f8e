// Package device names the browser or device behind a signed-in session.
package device

import (
	"strings"

	"github.com/mssola/useragent"

	"dashgate/internal/identity"
)

const Unknown = "Unknown Device"

// Name prefers the provider's browser name, then falls back to parsing the
// session's raw user agent.
func Name(activity *identity.Activity) string {
	if activity == nil {
		return Unknown
	}
	if name := strings.TrimSpace(activity.BrowserName); name != "" {
		return name
	}
	return ParseUserAgent(activity.UserAgent)
}

// ParseUserAgent extracts a display name from a User-Agent string.
// Returns format: "Browser on OS" (e.g., "Chrome on macOS", "Safari on iPhone").
func ParseUserAgent(userAgentString string) string {
	if strings.TrimSpace(userAgentString) == "" {
		return Unknown
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	if ua.Bot() || browser == "" {
		return Unknown
	}

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	os := ua.OS()
	if os == "" {
		return browser
	}
	return strings.TrimSpace(browser + " on " + os)
}
