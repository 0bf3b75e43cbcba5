// Package useragent provides one-shot device detection from the first
// sighting's User-Agent header. Detection is heuristic; the result is
// frozen on the visitor and never revisited, even if the UA changes.
package useragent

import (
	"strings"

	"github.com/beaconview/beaconview-go/internal/domain/visitor"
)

// Detect derives browser, OS, and device type from a raw User-Agent.
func Detect(ua string) *visitor.Device {
	lower := strings.ToLower(ua)
	return &visitor.Device{
		Browser: detectBrowser(lower),
		OS:      detectOS(lower),
		Type:    detectType(lower),
	}
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return "Safari"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case ua == "":
		return "Unknown"
	default:
		return "Other"
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	case ua == "":
		return "Unknown"
	default:
		return "Other"
	}
}

func detectType(ua string) string {
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}
