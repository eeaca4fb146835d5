package utils

import "strings"

// CanonicalDNSName returns a DNS name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot, so list entries and queries compare label for label.
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// Labels splits a canonical name into its dot-separated labels, leftmost first.
// An empty name has no labels.
func Labels(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}
