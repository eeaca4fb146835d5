package blocklist

import (
	"strings"

	"github.com/haukened/rr-blocklist/internal/dns/common/utils"
)

// node is one label in the trie. The root carries no label and is never terminal.
type node struct {
	children map[string]*node
	terminal bool
}

// Trie stores blocked domains keyed by label, walked from the top-level label
// down. Domains sharing a suffix share nodes, so every "*.com" entry hangs off
// one "com" node.
//
// A Trie has no locking of its own. The repository builds one privately and
// never mutates it after publication.
type Trie struct {
	root node
	size int
}

// NewTrie returns an empty Trie.
func NewTrie() *Trie {
	return &Trie{}
}

// Insert adds a canonical domain name. Inserting a name twice has no further
// effect and an empty name is ignored.
func (t *Trie) Insert(name string) {
	labels := utils.Labels(name)
	if len(labels) == 0 {
		return
	}
	n := &t.root
	for i := len(labels) - 1; i >= 0; i-- {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[labels[i]]
		if !ok {
			child = &node{}
			n.children[labels[i]] = child
		}
		n = child
	}
	if !n.terminal {
		n.terminal = true
		t.size++
	}
}

// Contains reports whether name was inserted. With includeSubdomains it also
// reports true when any ancestor of name was inserted, so "sub.ads.example.com"
// matches an "ads.example.com" entry.
func (t *Trie) Contains(name string, includeSubdomains bool) bool {
	labels := utils.Labels(name)
	n := &t.root
	for i := len(labels) - 1; i >= 0; i-- {
		child, ok := n.children[labels[i]]
		if !ok {
			return false
		}
		n = child
		if i == 0 {
			return n.terminal
		}
		if includeSubdomains && n.terminal {
			return true
		}
	}
	return false
}

// Len returns the number of distinct domains in the trie.
func (t *Trie) Len() int {
	return t.size
}

// ShrinkToFit reallocates every child map at its exact size and drops the
// maps of leaf nodes. Query results are unchanged.
func (t *Trie) ShrinkToFit() {
	shrink(&t.root)
}

func shrink(n *node) {
	if len(n.children) == 0 {
		n.children = nil
		return
	}
	fitted := make(map[string]*node, len(n.children))
	for label, child := range n.children {
		shrink(child)
		fitted[label] = child
	}
	n.children = fitted
}

// Walk calls fn with every domain in the trie, in no particular order.
func (t *Trie) Walk(fn func(name string)) {
	walk(&t.root, nil, fn)
}

// path holds labels top-level first.
func walk(n *node, path []string, fn func(name string)) {
	if n.terminal {
		labels := make([]string, len(path))
		for i, l := range path {
			labels[len(path)-1-i] = l
		}
		fn(strings.Join(labels, "."))
	}
	for label, child := range n.children {
		walk(child, append(path, label), fn)
	}
}
