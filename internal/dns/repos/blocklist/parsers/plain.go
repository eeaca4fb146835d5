package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

// ParsePlainList parses a simple newline-delimited list of domains into BlockRule values.
// Leading "*." or "." markers are accepted and stripped.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Trims surrounding whitespace and removes trailing dots via CanonicalDNSName
// - Skips empty lines after trimming/stripping comments
// - De-duplicates by canonical name while preserving first-seen order
// - Each rule is attributed to the provided source and timestamped with now
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]domain.BlockRule, 0, 256)
	logger.Debug(map[string]any{"source": source}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		s := strings.TrimSpace(stripInlineComment(line))
		name := normalizeDomainName(s)

		if !isValidFQDN(name) {
			// skip email addresses, URLs and such
			logger.Debug(map[string]any{"line": lineNum, "raw": s, "name": name}, "skip_invalid_fqdn")
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		rule, err := domain.NewBlockRule(name, source, now)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "name": name, "error": err.Error()}, "skip_constructor_error")
			continue
		}
		out = append(out, rule)
		seen[name] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
