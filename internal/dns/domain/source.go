package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// SourceKind distinguishes where list content comes from.
type SourceKind uint8

const (
	// SourceFile is a list read from the local filesystem. It has no cache.
	SourceFile SourceKind = iota
	// SourceRemote is a list fetched over HTTP(S) and cached on disk.
	SourceRemote
)

// String returns a stable string representation of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceRemote:
		return "remote"
	default:
		return fmt.Sprintf("SourceKind(%d)", k)
	}
}

const (
	// maxCacheFileName keeps generated names under the common 255 byte limit.
	maxCacheFileName = 255
	// emptyCacheFileName stands in when a remote locator has neither path nor query.
	emptyCacheFileName = "index"
)

// Source is a parsed list locator.
type Source struct {
	raw  string
	kind SourceKind
	path string // filesystem path for SourceFile
	url  *url.URL
}

// ParseSource parses a list locator.
//
// Accepted forms:
//   - file:///abs/path.txt    → SourceFile
//   - /abs/path.txt, rel.txt  → SourceFile (no scheme)
//   - http(s)://host/path?q   → SourceRemote
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("source locator must not be empty")
	}
	u, err := url.Parse(raw)
	// a single letter scheme is a windows drive, not a URL
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return Source{raw: raw, kind: SourceFile, path: raw}, nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return Source{}, fmt.Errorf("source %q: file locator has no path", raw)
		}
		return Source{raw: raw, kind: SourceFile, path: u.Path, url: u}, nil
	case "http", "https":
		if u.Host == "" {
			return Source{}, fmt.Errorf("source %q: remote locator has no host", raw)
		}
		return Source{raw: raw, kind: SourceRemote, url: u}, nil
	default:
		return Source{}, fmt.Errorf("source %q: unsupported scheme %q", raw, u.Scheme)
	}
}

// MustParseSource is ParseSource for literals known to be valid. It panics on error.
func MustParseSource(raw string) Source {
	s, err := ParseSource(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSources parses every locator, failing on the first invalid one.
func ParseSources(raws []string) ([]Source, error) {
	out := make([]Source, 0, len(raws))
	for _, raw := range raws {
		s, err := ParseSource(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Kind reports whether the source is a local file or a remote feed.
func (s Source) Kind() SourceKind { return s.kind }

// IsRemote is shorthand for Kind() == SourceRemote.
func (s Source) IsRemote() bool { return s.kind == SourceRemote }

// Path returns the filesystem path of a file source, or "" for remote sources.
func (s Source) Path() string { return s.path }

// URL returns the fetch URL of a remote source, or "" for file sources.
func (s Source) URL() string {
	if s.kind != SourceRemote {
		return ""
	}
	return s.url.String()
}

// String returns the locator as configured. It doubles as the source
// identifier handed to list parsers.
func (s Source) String() string { return s.raw }

// CacheFileName derives the on-disk cache file name of a remote source:
// the URL path with every "/" replaced by "-", one leading "-" removed, and
// "--" plus the raw query appended when a query is present. Within the query
// "%" and "/" are percent-escaped, so the name is always a single path element.
//
// Characters that are not portable in file names (\ : * ? " < > | and control
// characters) are then percent-escaped; names made only of portable
// characters are unchanged. Names over 255 bytes are truncated and suffixed
// with a hash of the full name so distinct URLs never share a cache file.
// File sources have no cache and return "".
func (s Source) CacheFileName() string {
	if s.kind != SourceRemote {
		return ""
	}
	name := strings.ReplaceAll(s.url.EscapedPath(), "/", "-")
	name = strings.TrimPrefix(name, "-")
	if s.url.RawQuery != "" {
		name += "--" + queryEscaper.Replace(s.url.RawQuery)
	}
	name = escapeFileName(name)
	switch name {
	case "":
		return emptyCacheFileName
	case ".", "..":
		return "%2E" + name[1:]
	}
	if len(name) > maxCacheFileName {
		sum := sha256.Sum256([]byte(name))
		suffix := "-" + hex.EncodeToString(sum[:8])
		name = name[:maxCacheFileName-len(suffix)] + suffix
	}
	return name
}

var queryEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

func escapeFileName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(`\:*?"<>|`, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
