package parsers

import (
	"bytes"
	"testing"
	"time"

	"github.com/haukened/rr-blocklist/internal/dns/common/log"
)

func TestParseHostsFile_Basic(t *testing.T) {
	input := `
# comment
127.0.0.1 localhost
::1 localhost ip6-localhost ip6-loopback
0.0.0.0 example.com example.org # inline comment
# wildcard-like entries should be ignored
0.0.0.0 *.bad.example.com .also.bad.example.com
192.168.1.1 sub.Example.com
1.2.3.4 . .
255.255.255.255 broadcasthost
`
	now := time.Unix(1723551000, 0)
	got, err := ParseHostsFile(bytes.NewBufferString(input), "hosts-src", log.NewNoopLogger(), now)
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}

	want := []string{"example.com", "example.org", "sub.example.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d: %#v", len(want), len(got), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("rule[%d] = %q, want %q", i, got[i].Name, name)
		}
		if got[i].Source != "hosts-src" || !got[i].AddedAt.Equal(now) {
			t.Fatalf("rule[%d] meta unexpected: %+v", i, got[i])
		}
	}
}

func TestParseHostsFile_DuplicatesAndScannerError(t *testing.T) {
	input := "0.0.0.0 dup.example.com dup.example.com\n0.0.0.0 DUP.example.com.\n"
	got, err := ParseHostsFile(bytes.NewBufferString(input), "s", log.NewNoopLogger(), time.Now())
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 rule after dedupe, got %d", len(got))
	}

	big := bytes.Repeat([]byte{'a'}, 70000)
	_, err = ParseHostsFile(bytes.NewBuffer(big), "s", log.NewNoopLogger(), time.Now())
	if err == nil {
		t.Fatalf("expected scanner error, got nil")
	}
}

func TestParseHostsFile_NoHostnames_And_ConstructorErrors(t *testing.T) {
	input := "192.0.2.1\n0.0.0.0 example.com\n"

	got, err := ParseHostsFile(bytes.NewBufferString(input), "src", log.NewNoopLogger(), time.Now())
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "example.com" {
		t.Fatalf("expected one rule for example.com, got %#v", got)
	}

	// empty source and zero time are rejected by the rule constructor
	got, err = ParseHostsFile(bytes.NewBufferString("0.0.0.0 example.com\n"), "", log.NewNoopLogger(), time.Unix(1723552000, 0))
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 rules due to constructor error (empty source), got %d", len(got))
	}

	got, err = ParseHostsFile(bytes.NewBufferString("0.0.0.0 example.com\n"), "src", log.NewNoopLogger(), time.Time{})
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 rules due to constructor error (zero time), got %d", len(got))
	}
}
