package domain

import (
	"fmt"
	"strings"
	"time"
)

// BlockRule is a single blocked domain emitted by a list parser.
//
// Notes:
// - Name is expected to be canonical and without a trailing dot (normalization handled by the parser).
// - Source identifies the list the rule came from (file path or feed URL).
// - AddedAt records when the rule was ingested.
//
// A rule carries no match kind: whether subdomains are covered is decided per
// query, not per entry.
type BlockRule struct {
	Name    string    // canonical domain (no trailing dot), e.g., "ads.example.com"
	Source  string    // feed/file identifier
	AddedAt time.Time // ingestion timestamp
}

// NewBlockRule constructs a BlockRule and validates its fields.
func NewBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	r := BlockRule{
		Name:    strings.TrimSpace(name),
		Source:  strings.TrimSpace(source),
		AddedAt: addedAt,
	}
	if err := r.Validate(); err != nil {
		return BlockRule{}, err
	}
	return r, nil
}

// Validate checks the BlockRule for required fields.
func (r BlockRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if strings.HasSuffix(r.Name, ".") || strings.Contains(r.Name, "..") {
		return fmt.Errorf("rule name %q has an empty label", r.Name)
	}
	if r.Source == "" {
		return fmt.Errorf("rule source must not be empty")
	}
	if r.AddedAt.IsZero() {
		return fmt.Errorf("rule addedAt must be set")
	}
	return nil
}

// Domain returns the blocked name. It mirrors the accessor list parsers expose
// for each entry so callers need not reach into the struct.
func (r BlockRule) Domain() string { return r.Name }
