package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// trustedProxies is the set of peers allowed to report a client address
// through X-Forwarded-For or X-Real-IP.
type trustedProxies []netip.Prefix

// parseTrustedProxies accepts bare addresses and CIDR ranges. Entries that
// parse as neither are logged and skipped.
func parseTrustedProxies(entries []string) trustedProxies {
	var proxies trustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			proxies = append(proxies, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		slog.Warn("ignoring invalid trusted proxy", "entry", entry)
	}
	return proxies
}

func (tp trustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range tp {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the address a request should be attributed to. The TCP
// peer is used unless it is a trusted proxy, in which case X-Forwarded-For
// is walked from the right and the first untrusted hop wins.
func (tp trustedProxies) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !tp.contains(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				// Anything left of a garbled hop is unverifiable
				return peer
			}
			if !tp.contains(hop) {
				return hop
			}
		}
		return peer
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}

	return peer
}

// remoteHost is the TCP peer address without its port.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
