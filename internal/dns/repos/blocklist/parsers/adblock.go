package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

// ParseAdblockList extracts blocked domains from adblock-style filter lists
// (AdGuard DNS filter, EasyList domain rules).
//
// Only whole-domain network rules are used:
//   - "||example.com^" and "||example.com" block example.com
//   - "||example.com^$important" is accepted; any other modifier skips the rule
//   - bare hostnames are accepted, as AdGuard DNS syntax allows them
//
// Skipped: "!" and "#" comments, "[Adblock ...]" headers, "@@" exceptions,
// cosmetic rules ("##", "#@#", "#?#"), URL rules with paths and wildcard rules.
func ParseAdblockList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]domain.BlockRule, 0, 256)
	logger.Debug(map[string]any{"source": source}, "parse_adblock_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripLineBOM(scanner.Text()))

		if line == "" || isAdblockComment(line) {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			logger.Debug(map[string]any{"line": lineNum}, "adblock_skip_exception")
			continue
		}
		if strings.Contains(line, "##") || strings.Contains(line, "#@#") || strings.Contains(line, "#?#") {
			logger.Debug(map[string]any{"line": lineNum}, "adblock_skip_cosmetic")
			continue
		}

		raw, ok := adblockDomain(line)
		if !ok {
			logger.Debug(map[string]any{"line": lineNum, "raw": line}, "adblock_skip_unsupported")
			continue
		}

		name := normalizeDomainName(raw)
		if !isValidFQDN(name) {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw, "name": name}, "adblock_skip_invalid_fqdn")
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}

		rule, err := domain.NewBlockRule(name, source, now)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "name": name, "error": err.Error()}, "adblock_skip_constructor_error")
			continue
		}
		out = append(out, rule)
		seen[name] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "parse_adblock_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_adblock_done")
	return out, nil
}

func isAdblockComment(line string) bool {
	return strings.HasPrefix(line, "!") ||
		strings.HasPrefix(line, "[") ||
		(strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##"))
}

// adblockDomain returns the domain a network rule blocks as a whole, or false
// when the rule targets something narrower than a domain.
func adblockDomain(line string) (string, bool) {
	rule, modifiers, hasModifiers := strings.Cut(line, "$")
	if hasModifiers && modifiers != "important" {
		return "", false
	}

	if !strings.HasPrefix(rule, "||") {
		// bare hostname
		if strings.ContainsAny(rule, "|^/*") {
			return "", false
		}
		return rule, true
	}

	rule = strings.TrimPrefix(rule, "||")
	rule = strings.TrimSuffix(rule, "|")
	rule = strings.TrimSuffix(rule, "^")
	if rule == "" || strings.ContainsAny(rule, "^/*|") {
		return "", false
	}
	return rule, true
}
