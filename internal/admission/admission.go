// Package admission decides whether a new push subscription is accepted.
// The relay consults the guard only at subscribe time; a blocked attempt is
// refused with an explanatory disconnect and causes no upstream side effect.
package admission

import "net"

// ConnContext describes the connection attempting to subscribe.
type ConnContext struct {
	RemoteAddr string
	Origin     string
}

// Guard is the admission policy contract.
type Guard interface {
	IsBlocked(c ConnContext) bool
}

// Snapshot reports current connection counts: total push sessions and the
// count for one client IP. Supplied by the push server.
type Snapshot func(ip string) (total, perIP int)

// LimitGuard blocks subscriptions past a global or per-IP connection cap.
// A zero cap disables that limit.
type LimitGuard struct {
	MaxTotal int
	MaxPerIP int
	snapshot Snapshot
}

func NewLimitGuard(maxTotal, maxPerIP int, snapshot Snapshot) *LimitGuard {
	return &LimitGuard{MaxTotal: maxTotal, MaxPerIP: maxPerIP, snapshot: snapshot}
}

func (g *LimitGuard) IsBlocked(c ConnContext) bool {
	total, perIP := g.snapshot(ClientIP(c.RemoteAddr))
	if g.MaxTotal > 0 && total >= g.MaxTotal {
		return true
	}
	if g.MaxPerIP > 0 && perIP >= g.MaxPerIP {
		return true
	}
	return false
}

// ClientIP strips the port from a remote address, tolerating bare hosts.
func ClientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
