package parsers

import (
	"strings"
	"unicode"

	"github.com/haukened/rr-blocklist/internal/dns/common/utils"
)

// isValidFQDN checks whether the provided string is a valid Fully Qualified Domain Name (FQDN).
// It enforces the following rules:
//   - The total length must not exceed 255 characters.
//   - The name must contain at least two labels (separated by dots).
//   - Each label must be between 1 and 63 characters long.
//   - The first label must start with a letter or number.
//   - Only hostname characters appear (letters, digits, '-', '_'); wildcards are rejected.
//
// Returns true if the input meets all FQDN requirements, false otherwise.
func isValidFQDN(name string) bool {
	if len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) > 63 || len(label) == 0 {
			return false
		}
		for _, r := range label {
			if !isHostnameRune(r) {
				return false
			}
		}
	}
	runes := []rune(labels[0])
	return isAlphaNumeric(runes[0])
}

// normalizeDomainName takes a domain name string, trims leading and trailing whitespace,
// removes any leading "*." or "." prefixes, and returns the canonical DNS name format
// using utils.CanonicalDNSName. Entries like "*.example.com" therefore block
// example.com itself, which subdomain matching extends to everything below it.
func normalizeDomainName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return utils.CanonicalDNSName(name)
}

// isAlphaNumeric reports whether the given rune is a letter or digit.
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isHostnameRune reports whether r may appear inside a label.
// Underscores are tolerated because real blocklists carry service labels like "_dmarc".
func isHostnameRune(r rune) bool {
	return isAlphaNumeric(r) || r == '-' || r == '_'
}

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether a raw line is blank or a whole-line '#' comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

// stripInlineComment cuts everything from the first '#' onwards.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}
