// Package privacy keeps personal data out of logs and metrics.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"net/netip"
	"strings"
)

// AnonymizeIP keeps the /24 (IPv4) or /48 (IPv6) network of an address.
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()
	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// EmailRef is a stable, non-reversible reference to an email address for log
// correlation. The domain is kept since it is rarely identifying on its own.
func EmailRef(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		domain = ""
	}
	sum := sha256.Sum256([]byte(local))
	ref := hex.EncodeToString(sum[:6])
	if domain == "" {
		return ref
	}
	return ref + "@" + domain
}
