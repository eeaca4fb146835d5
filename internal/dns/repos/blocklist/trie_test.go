package blocklist

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrie_InsertAndContains(t *testing.T) {
	tr := NewTrie()
	tr.Insert("ads.example.com")

	tests := []struct {
		name       string
		query      string
		subdomains bool
		want       bool
	}{
		{"exact", "ads.example.com", false, true},
		{"exact with subdomains", "ads.example.com", true, true},
		{"subdomain included", "sub.ads.example.com", true, true},
		{"deep subdomain included", "a.b.c.ads.example.com", true, true},
		{"subdomain excluded", "sub.ads.example.com", false, false},
		{"parent never matches", "example.com", true, false},
		{"tld never matches", "com", true, false},
		{"sibling", "tracker.example.com", true, false},
		{"label prefix is not a subdomain", "xads.example.com", true, false},
		{"other tld", "ads.example.net", true, false},
		{"empty query", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Contains(tt.query, tt.subdomains))
		})
	}
}

func TestTrie_InsertIsIdempotent(t *testing.T) {
	tr := NewTrie()
	tr.Insert("a.com")
	tr.Insert("a.com")
	tr.Insert("b.a.com")
	tr.Insert("")
	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Contains("a.com", false))
	assert.True(t, tr.Contains("b.a.com", false))
}

func TestTrie_ParentAndChildBothInserted(t *testing.T) {
	tr := NewTrie()
	tr.Insert("b.a.com")
	// the intermediate node exists but is not terminal yet
	assert.False(t, tr.Contains("a.com", false))
	assert.False(t, tr.Contains("c.a.com", true))

	tr.Insert("a.com")
	assert.True(t, tr.Contains("a.com", false))
	assert.True(t, tr.Contains("c.a.com", true))
	assert.False(t, tr.Contains("c.a.com", false))
}

func TestTrie_Properties(t *testing.T) {
	tr := NewTrie()
	var domains []string
	for i := 0; i < 200; i++ {
		d := fmt.Sprintf("d%03d.zone%d.test", i, i%7)
		domains = append(domains, d)
		tr.Insert(d)
		tr.Insert(d) // duplicates collapse
	}
	tr.ShrinkToFit()

	assert.Equal(t, len(domains), tr.Len())
	for _, d := range domains {
		assert.True(t, tr.Contains(d, false), d)
		assert.True(t, tr.Contains(d, true), d)
		for _, p := range []string{"x", "www", "a.b"} {
			sub := p + "." + d
			assert.True(t, tr.Contains(sub, true), sub)
			assert.False(t, tr.Contains(sub, false), sub)
		}
	}
}

func TestTrie_ShrinkToFitKeepsResults(t *testing.T) {
	tr := NewTrie()
	names := []string{"a.com", "b.com", "x.y.org", "deep.x.y.org"}
	for _, n := range names {
		tr.Insert(n)
	}
	queries := []string{"a.com", "sub.a.com", "c.com", "y.org", "x.y.org", "z.deep.x.y.org", "com"}
	before := make(map[string][2]bool)
	for _, q := range queries {
		before[q] = [2]bool{tr.Contains(q, false), tr.Contains(q, true)}
	}

	tr.ShrinkToFit()

	for _, q := range queries {
		assert.Equal(t, before[q], [2]bool{tr.Contains(q, false), tr.Contains(q, true)}, q)
	}
	assert.Equal(t, len(names), tr.Len())

	// leaves drop their child maps
	leaf := tr.root.children["com"].children["a"]
	assert.Nil(t, leaf.children)

	// inserting after a shrink still works
	tr.Insert("new.a.com")
	assert.True(t, tr.Contains("new.a.com", false))
}

func TestTrie_Walk(t *testing.T) {
	tr := NewTrie()
	want := []string{"a.com", "b.a.com", "x.y.org"}
	for _, n := range want {
		tr.Insert(n)
	}

	var got []string
	tr.Walk(func(name string) { got = append(got, name) })
	sort.Strings(got)
	assert.Equal(t, want, got)

	var none []string
	NewTrie().Walk(func(name string) { none = append(none, name) })
	assert.Empty(t, none)
}

func BenchmarkTrie_Contains(b *testing.B) {
	tr := NewTrie()
	for i := 0; i < 100_000; i++ {
		tr.Insert(fmt.Sprintf("host%06d.example%d.com", i, i%100))
	}
	tr.ShrinkToFit()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.Contains("a.b.host000042.example42.com", true)
	}
}
