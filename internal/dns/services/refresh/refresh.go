// Package refresh runs blocklist rebuilds on behalf of the daemon and the
// HTTP API.
package refresh

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist"
)

// Service rebuilds a repository from a fixed set of sources and holds the
// published domain count.
type Service struct {
	repo    blocklist.Repository
	sources []domain.Source
	logger  log.Logger

	group singleflight.Group
	// mu serialises updates so each run reads back the count it published.
	mu    sync.Mutex
	count atomic.Uint64
}

// Options configures a Service.
type Options struct {
	Repository blocklist.Repository
	Sources    []domain.Source
	Logger     log.Logger
}

// New returns a Service. Sources are used in the order given.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Service{
		repo:    opts.Repository,
		sources: append([]domain.Source(nil), opts.Sources...),
		logger:  opts.Logger,
	}
}

// Run performs one update. Callers arriving while an update with the same
// restore flag is running wait for it instead of starting another; an update
// with the other flag runs after it. It returns the count this update
// published and whether this call joined a running update.
func (s *Service) Run(ctx context.Context, restoreFromCache bool) (uint64, bool) {
	key := "update:" + strconv.FormatBool(restoreFromCache)
	v, _, shared := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		// a caller going away must not abort the rebuild others are waiting on
		s.repo.Update(context.WithoutCancel(ctx), s.sources, restoreFromCache, &s.count)
		return s.count.Load(), nil
	})
	if shared {
		s.logger.Debug(map[string]any{"restore": restoreFromCache}, "refresh_joined")
	}
	return v.(uint64), shared
}

// Trigger starts an update in the background unless one is already running.
func (s *Service) Trigger(ctx context.Context, restoreFromCache bool) {
	go s.Run(ctx, restoreFromCache)
}

// Count returns the domain count of the current snapshot.
func (s *Service) Count() uint64 {
	return s.count.Load()
}

// Sources returns the configured sources.
func (s *Service) Sources() []domain.Source {
	return append([]domain.Source(nil), s.sources...)
}
