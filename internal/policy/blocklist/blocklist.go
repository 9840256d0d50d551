// Package blocklist decides which target hosts the inspector refuses to fetch.
package blocklist

import (
	"net/netip"
	"strings"
)

// Blocklist stores exact hosts and suffix wildcards derived from
// configuration. With private blocking on, IP literals in loopback, private,
// link-local and unspecified ranges are refused as well.
type Blocklist struct {
	exact        map[string]struct{}
	suffixes     []string
	blockPrivate bool
}

// New builds a Blocklist. Patterns are exact hosts ("example.org") or
// suffixes ("*.local" or ".local", which also match the bare suffix).
func New(patterns []string, blockPrivate bool) *Blocklist {
	b := &Blocklist{
		exact:        make(map[string]struct{}),
		blockPrivate: blockPrivate,
	}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			b.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			b.addSuffix(strings.TrimPrefix(value, "."))
		default:
			b.exact[strings.TrimSuffix(value, ".")] = struct{}{}
		}
	}
	return b
}

func (b *Blocklist) addSuffix(suffix string) {
	suffix = strings.TrimSuffix(suffix, ".")
	if suffix == "" {
		return
	}
	for _, existing := range b.suffixes {
		if existing == suffix {
			return
		}
	}
	b.suffixes = append(b.suffixes, suffix)
}

// IsBlocked reports whether host may not be inspected. A nil Blocklist
// blocks nothing.
func (b *Blocklist) IsBlocked(host string) bool {
	if b == nil {
		return false
	}
	host = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(host)), ".")
	if host == "" {
		return false
	}
	if b.blockPrivate {
		if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
			return isInternal(addr)
		}
	}
	if _, exact := b.exact[host]; exact {
		return true
	}
	for _, suffix := range b.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

func isInternal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
