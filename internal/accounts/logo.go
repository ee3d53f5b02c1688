package accounts

import "strings"

// FormatLogoURL normalizes an institution logo for display. Data and http(s)
// URLs pass through, any other non-empty value is taken as raw base64 PNG,
// and an empty logo falls back to fallbacks[institutionID] ("" if none).
func FormatLogoURL(logo, institutionID string, fallbacks map[string]string) string {
	if logo != "" {
		if strings.HasPrefix(logo, "data:") || strings.HasPrefix(logo, "http") {
			return logo
		}
		return "data:image/png;base64," + logo
	}
	return fallbacks[institutionID]
}
