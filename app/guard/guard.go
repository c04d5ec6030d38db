// Package guard decides, per request path, whether a visitor may proceed to
// the authenticated app or must sign in first.
package guard

import "strings"

const (
	LoginPath   = "/login"
	AuthAPIPath = "/api/auth"
)

type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

type Decision struct {
	Action   Action
	Location string
}

type Guard struct {
	protected []string
}

func New(protectedPaths []string) *Guard {
	protected := make([]string, 0, len(protectedPaths))
	for _, p := range protectedPaths {
		p = "/" + strings.Trim(strings.TrimSpace(p), "/")
		if p != "/" {
			protected = append(protected, p)
		}
	}
	return &Guard{protected: protected}
}

// Decide is pure: the same path and session state always give the same
// decision. Rules are checked in order and the first match wins.
func (g *Guard) Decide(path string, hasSession bool) Decision {
	if hasPathPrefix(path, AuthAPIPath) {
		return Decision{Action: Allow}
	}
	if !hasSession && g.IsProtected(path) {
		return Decision{Action: Redirect, Location: LoginPath}
	}
	return Decision{Action: Allow}
}

func (g *Guard) IsProtected(path string) bool {
	for _, prefix := range g.protected {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole segments: /dashboard matches /dashboard and
// /dashboard/x but not /dashboards.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
