package logger

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// MaskIP hides the host part of an address. IPv4 keeps three octets and
// IPv6 keeps its /48 prefix. Non-addresses are returned as is.
func MaskIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.x", v4[0], v4[1], v4[2])
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}

// MaskCPF keeps the first three and the last two digits of a CPF.
func MaskCPF(cpf string) string {
	if len(cpf) < 5 {
		return strings.Repeat("*", len(cpf))
	}
	return cpf[:3] + strings.Repeat("*", len(cpf)-5) + cpf[len(cpf)-2:]
}

// RedactedAttr returns "[REDACTED]" in production and the value elsewhere.
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

// SanitizeQueryString reports whether a raw query string carries a
// sensitive parameter and must not be logged.
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{"password", "senha", "token", "secret", "cpf", "auth"}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
