package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPResolver derives the rate-limit key for a request. Forwarded
// headers are honored only when the direct peer is a configured trusted
// proxy; anything else would let clients mint their own limiter keys.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

func NewClientIPResolver(trustedProxies []string) *ClientIPResolver {
	var prefixes []netip.Prefix
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, p)
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return &ClientIPResolver{trusted: prefixes}
}

// Resolve returns the client address, or "" when no parseable address is
// available. Callers treat the empty key as its own stricter bucket.
func (res *ClientIPResolver) Resolve(r *http.Request) string {
	peer := remoteAddr(r)
	if !peer.IsValid() {
		return ""
	}
	if res.isTrusted(peer) {
		if fwd := forwardedClient(r.Header.Get("X-Forwarded-For")); fwd.IsValid() {
			return fwd.String()
		}
	}
	return peer.String()
}

func (res *ClientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

// forwardedClient takes the left-most parseable address: the original
// client as reported by the first proxy in the chain.
func forwardedClient(header string) netip.Addr {
	if header == "" {
		return netip.Addr{}
	}
	for _, part := range strings.Split(header, ",") {
		addr, err := netip.ParseAddr(strings.TrimSpace(part))
		if err == nil {
			return addr.Unmap()
		}
	}
	return netip.Addr{}
}
