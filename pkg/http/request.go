package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig holds the proxies whose forwarding headers are trusted.
type IPConfig struct {
	TrustedProxies []string
	nets           []*net.IPNet
}

// NewIPConfig parses the trusted proxy CIDRs once. Invalid ranges are ignored.
func NewIPConfig(trustedProxies []string) *IPConfig {
	cfg := &IPConfig{TrustedProxies: trustedProxies}
	cfg.nets = parseCIDRs(trustedProxies)
	return cfg
}

// ExtractClientIP returns the address used for per-source throttling.
// X-Forwarded-For and X-Real-IP are honoured only when the direct peer is
// a trusted proxy; otherwise RemoteAddr is used. The forwarded list is read
// from the right: the nearest hop that is not a trusted proxy is the client,
// and anything to its left was written by the client itself.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if config != nil && config.trusts(remoteIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(hops[i])
				if isValidIP(ip) && !config.trusts(ip) {
					return ip
				}
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); isValidIP(xri) {
			return xri
		}
	}

	return remoteIP
}

func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func (c *IPConfig) trusts(ip string) bool {
	nets := c.nets
	if nets == nil {
		nets = parseCIDRs(c.TrustedProxies)
	}
	if len(nets) == 0 {
		return false
	}

	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}
	for _, ipNet := range nets {
		if ipNet.Contains(clientIP) {
			return true
		}
	}
	return false
}

func parseCIDRs(cidrs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		if _, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			nets = append(nets, ipNet)
		}
	}
	return nets
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
