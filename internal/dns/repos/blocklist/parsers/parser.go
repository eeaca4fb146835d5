package parsers

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/haukened/rr-blocklist/internal/dns/common/clock"
	logpkg "github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

// Format identifies a list syntax.
type Format uint8

const (
	// FormatPlain is one domain per line.
	FormatPlain Format = iota
	// FormatHosts is /etc/hosts syntax: an address followed by names.
	FormatHosts
	// FormatAdblock is adblock filter syntax ("||example.com^").
	FormatAdblock
)

// String returns a stable string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatHosts:
		return "hosts"
	case FormatAdblock:
		return "adblock"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// DetectFormat sniffs the syntax of a list from its first significant line.
// Lists holding nothing but comments and blank lines are reported as plain.
func DetectFormat(raw string) Format {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(stripLineBOM(scanner.Text()))
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "[Adblock"), strings.HasPrefix(line, "!"),
			strings.HasPrefix(line, "||"), strings.HasPrefix(line, "@@"):
			return FormatAdblock
		case strings.HasPrefix(line, "#"):
			continue
		}
		fields := strings.Fields(stripInlineComment(line))
		if len(fields) >= 2 && net.ParseIP(fields[0]) != nil {
			return FormatHosts
		}
		return FormatPlain
	}
	return FormatPlain
}

// Parser turns raw list text into block rules, choosing the syntax per list.
// Every rule is stamped with the clock's current time.
type Parser struct {
	logger logpkg.Logger
	clock  clock.Clock
}

// New returns a Parser. A nil clock falls back to the wall clock.
func New(logger logpkg.Logger, clk clock.Clock) *Parser {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Parser{logger: logger, clock: clk}
}

// Parse detects the format of raw and parses it. source identifies the list in
// the resulting rules and in log fields. The error describes the first failure
// that prevented the list from being read to its end.
func (p *Parser) Parse(source, raw string) ([]domain.BlockRule, error) {
	format := DetectFormat(raw)
	now := p.clock.Now()
	r := strings.NewReader(raw)

	var (
		rules []domain.BlockRule
		err   error
	)
	switch format {
	case FormatHosts:
		rules, err = ParseHostsFile(r, source, p.logger, now)
	case FormatAdblock:
		rules, err = ParseAdblockList(r, source, p.logger, now)
	default:
		rules, err = ParsePlainList(r, source, p.logger, now)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s list %s: %w", format, source, err)
	}
	return rules, nil
}
