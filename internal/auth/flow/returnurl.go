package flow

import (
	"net/url"
	"strings"
)

// DefaultLanding is where already-authenticated logins and rejected
// return URLs go.
const DefaultLanding = "/"

// SanitizeReturnURL keeps only same-site absolute paths. Anything that
// could leave the site (scheme, host, protocol-relative "//", backslash
// tricks) falls back to DefaultLanding.
func SanitizeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return DefaultLanding
	}
	if strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return DefaultLanding
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultLanding
	}

	return raw
}
