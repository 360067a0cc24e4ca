package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeTarget converts an input line into a WorkItem. Bare domains get
// an https scheme prepended; lines that already carry a scheme are kept as
// given. Normalization happens once here, never per-fetch.
func NormalizeTarget(raw string) (WorkItem, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return WorkItem{}, fmt.Errorf("empty target")
	}

	target := trimmed
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return WorkItem{}, fmt.Errorf("parse target %q: %w", trimmed, err)
	}
	if u.Host == "" {
		return WorkItem{}, fmt.Errorf("target %q has no host", trimmed)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	domain := trimmed
	if strings.Contains(trimmed, "://") {
		domain = u.Host
	}

	return WorkItem{Domain: domain, URL: u.String()}, nil
}

// ResolveReference resolves a possibly-relative candidate URL against the
// page base per RFC 3986. It returns "" when either side fails to parse.
func ResolveReference(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
