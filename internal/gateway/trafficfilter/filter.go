// Package trafficfilter rejects obviously hostile traffic before any
// stateful gateway logic runs.
//
// Two stateless checks apply in order: a case-insensitive User-Agent
// substring blocklist for known scrapers and scanners, then a request-path
// substring blocklist for probe targets. Blocked bots get a 403; probe paths
// get a 404 so the response is indistinguishable from an absent resource.
package trafficfilter

import "strings"

// Filter holds the compiled blocklists.
type Filter struct {
	userAgents []string
	paths      []string
}

// New creates a filter from the built-in rules plus any extras.
func New(extra Rules) *Filter {
	f := &Filter{
		userAgents: make([]string, 0, len(blockedUserAgents)+len(extra.BlockedUserAgents)),
		paths:      make([]string, 0, len(blockedPaths)+len(extra.BlockedPaths)),
	}

	for _, ua := range blockedUserAgents {
		f.userAgents = append(f.userAgents, strings.ToLower(ua))
	}
	for _, ua := range extra.BlockedUserAgents {
		if ua = strings.ToLower(strings.TrimSpace(ua)); ua != "" {
			f.userAgents = append(f.userAgents, ua)
		}
	}

	f.paths = append(f.paths, blockedPaths...)
	for _, p := range extra.BlockedPaths {
		if p = strings.TrimSpace(p); p != "" {
			f.paths = append(f.paths, p)
		}
	}

	return f
}

// MatchUserAgent returns the blocklist signature contained in the
// User-Agent, if any.
func (f *Filter) MatchUserAgent(userAgent string) (string, bool) {
	ua := strings.ToLower(userAgent)
	for _, sig := range f.userAgents {
		if strings.Contains(ua, sig) {
			return sig, true
		}
	}
	return "", false
}

// MatchPath returns the blocklist pattern contained in the request path,
// if any.
func (f *Filter) MatchPath(path string) (string, bool) {
	for _, pattern := range f.paths {
		if strings.Contains(path, pattern) {
			return pattern, true
		}
	}
	return "", false
}
