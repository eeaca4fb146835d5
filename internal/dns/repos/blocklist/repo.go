package blocklist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/haukened/rr-blocklist/internal/dns/common/clock"
	logpkg "github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/common/utils"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

const (
	errNilResolver = "blocklist: resolver is required"
	errNilParser   = "blocklist: parser is required"
)

// Options configures a Repository.
type Options struct {
	Resolver SourceResolver
	Parser   ListParser

	// Bloom builds the negative pre-filter of each snapshot; nil disables it.
	Bloom  BloomFactory
	FPRate float64

	// Cache builds the decision cache of each snapshot; nil or a CacheSize
	// of 0 disables it.
	Cache     CacheFactory
	CacheSize int

	Clock  clock.Clock
	Logger logpkg.Logger
}

// repository implements Repository. Update builds a snapshot privately and
// swaps the pointer under the write lock; readers hold the read lock only for
// the duration of one lookup.
type repository struct {
	mu         sync.RWMutex
	current    *snapshot
	generation uint64

	resolver  SourceResolver
	parser    ListParser
	bloom     BloomFactory
	fpRate    float64
	cache     CacheFactory
	cacheSize int
	clock     clock.Clock
	logger    logpkg.Logger
	printer   *message.Printer
}

// NewRepository constructs a Repository holding an empty snapshot.
func NewRepository(opts Options) (Repository, error) {
	if opts.Resolver == nil {
		return nil, errors.New(errNilResolver)
	}
	if opts.Parser == nil {
		return nil, errors.New(errNilParser)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	return &repository{
		current:   &snapshot{trie: NewTrie()},
		resolver:  opts.Resolver,
		parser:    opts.Parser,
		bloom:     opts.Bloom,
		fpRate:    opts.FPRate,
		cache:     opts.Cache,
		cacheSize: opts.CacheSize,
		clock:     opts.Clock,
		logger:    opts.Logger,
		printer:   message.NewPrinter(language.English),
	}, nil
}

// Update rebuilds the blocklist from sources, in order, and publishes the
// result. A source that cannot be read or parsed contributes nothing; the
// update itself never fails. count receives the number of published domains
// in the same critical section as the swap.
func (r *repository) Update(ctx context.Context, sources []domain.Source, restoreFromCache bool, count *atomic.Uint64) {
	if restoreFromCache {
		r.logger.Info(map[string]any{"sources": len(sources)}, "blocklist_restore_from_cache")
	} else {
		r.logger.Info(map[string]any{"sources": len(sources)}, "blocklist_update_start")
	}
	if err := r.resolver.EnsureCacheDir(); err != nil {
		r.logger.Error(map[string]any{"error": err}, "cache_dir_create_failed")
	}

	trie := NewTrie()
	var ok, failed int
	for _, src := range sources {
		if r.addSource(ctx, trie, src, restoreFromCache) {
			ok++
		} else {
			failed++
		}
	}
	trie.ShrinkToFit()
	n := trie.Len()

	snap := &snapshot{
		trie:          trie,
		bloom:         r.buildBloom(trie),
		cache:         r.buildCache(),
		updatedAt:     r.clock.Now(),
		sourcesOK:     ok,
		sourcesFailed: failed,
	}

	r.mu.Lock()
	r.generation++
	snap.generation = r.generation
	r.current = snap
	if count != nil {
		count.Store(uint64(n))
	}
	// gauges follow the published snapshot, not the last build to finish
	domainsBlocked.Set(float64(n))
	lastUpdate.Set(float64(snap.updatedAt.Unix()))
	r.mu.Unlock()

	updatesTotal.Inc()

	r.logger.Info(map[string]any{
		"domains":        r.printer.Sprintf("%d", n),
		"sources_ok":     ok,
		"sources_failed": failed,
		"generation":     snap.generation,
	}, "blocklist_updated")
	if n == 0 {
		r.logger.Warn(map[string]any{"sources": len(sources)}, "blocklist_empty")
	}
}

// addSource resolves, parses and inserts one source. It reports whether the
// source contributed to the build.
func (r *repository) addSource(ctx context.Context, trie *Trie, src domain.Source, restoreFromCache bool) bool {
	raw, ok := r.resolver.Resolve(ctx, src, restoreFromCache)
	if !ok {
		r.logger.Error(map[string]any{"source": src.String()}, "source_skipped")
		sourceResults.WithLabelValues(resultUnavailable).Inc()
		return false
	}
	rules, err := r.parser.Parse(src.String(), raw)
	if err != nil {
		r.logger.Error(map[string]any{"source": src.String(), "error": err}, "source_parse_failed")
		sourceResults.WithLabelValues(resultParseError).Inc()
		return false
	}
	for _, rule := range rules {
		if utils.IsPublicSuffix(rule.Name) {
			r.logger.Warn(map[string]any{"source": src.String(), "name": rule.Name}, "public_suffix_blocked")
		}
		trie.Insert(rule.Name)
	}
	r.logger.Debug(map[string]any{"source": src.String(), "rules": len(rules)}, "source_loaded")
	sourceResults.WithLabelValues(resultOK).Inc()
	return true
}

func (r *repository) buildBloom(trie *Trie) BloomFilter {
	if r.bloom == nil {
		return nil
	}
	bf := r.bloom.New(uint64(trie.Len()), r.fpRate)
	trie.Walk(func(name string) {
		bf.Add([]byte(name))
	})
	return bf
}

func (r *repository) buildCache() DecisionCache {
	if r.cache == nil || r.cacheSize <= 0 {
		return nil
	}
	c, err := r.cache(r.cacheSize)
	if err != nil {
		r.logger.Warn(map[string]any{"size": r.cacheSize, "error": err}, "decision_cache_disabled")
		return nil
	}
	return c
}

// Contains reports whether name is blocked in the current snapshot. The name
// is canonicalised first, so "Ads.Example.COM." and "ads.example.com" agree.
func (r *repository) Contains(name string, includeSubdomains bool) bool {
	cn := utils.CanonicalDNSName(name)
	if cn == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.contains(cn, includeSubdomains)
}

// Stats describes the current snapshot.
func (r *repository) Stats() Stats {
	r.mu.RLock()
	snap := r.current
	r.mu.RUnlock()
	return Stats{
		Domains:       uint64(snap.trie.Len()),
		Generation:    snap.generation,
		LastUpdate:    snap.updatedAt,
		SourcesOK:     snap.sourcesOK,
		SourcesFailed: snap.sourcesFailed,
		Cache:         snap.cacheStats(r.cacheSize),
	}
}
