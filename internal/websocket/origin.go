package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	trimmed := lo.Compact(lo.Map(origins, func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))
	policy := originPolicy{
		allowAll: lo.Contains(trimmed, "*"),
		allowed:  make(map[string]struct{}),
	}
	for _, origin := range trimmed {
		if normalized, ok := normalizeOrigin(origin); ok {
			policy.allowed[normalized] = struct{}{}
		}
	}
	return policy
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// allows reports whether a browser on origin may connect to host. With no
// configured origins only same-origin requests pass.
func (p originPolicy) allows(origin, host string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if len(p.allowed) == 0 {
		u, _ := url.Parse(normalized)
		return strings.EqualFold(u.Host, host)
	}
	_, exists := p.allowed[normalized]
	return exists
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if h.origins.allows(origin, r.Host) {
		return true
	}
	h.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", origin)
	return false
}
