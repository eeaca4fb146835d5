package utils

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// IsPublicSuffix reports whether name is itself a public suffix such as "com",
// "co.uk" or "github.io". Blocking one of these with subdomain matching
// blocks every registration beneath it.
// Single-label names unknown to the suffix list are not reported.
func IsPublicSuffix(name string) bool {
	name = CanonicalDNSName(name)
	if name == "" {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(name)
	if suffix != name {
		return false
	}
	return icann || strings.Contains(name, ".")
}
