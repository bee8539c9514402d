package usecases

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/metrics"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// MetadataCache defines the interface for caching resolved metadata by identity.
type MetadataCache interface {
	Get(ctx context.Context, id domain.Identity) (*domain.Metadata, bool, error)
	Put(ctx context.Context, id domain.Identity, m domain.Metadata) error
}

// MetadataResolver turns a source into metadata by calling an upstream service.
type MetadataResolver interface {
	Resolve(ctx context.Context, src domain.Source) (domain.Metadata, error)
}

// ResolveMetadataUseCase handles retrieving metadata with cache-first strategy.
type ResolveMetadataUseCase struct {
	cache     MetadataCache
	resolvers map[domain.SourceKind]MetadataResolver
	group     singleflight.Group
	timeout   time.Duration
}

// NewResolveMetadataUseCase creates a new ResolveMetadataUseCase.
func NewResolveMetadataUseCase(cache MetadataCache, tweets, pages MetadataResolver) *ResolveMetadataUseCase {
	return &ResolveMetadataUseCase{
		cache: cache,
		resolvers: map[domain.SourceKind]MetadataResolver{
			domain.SourceTweet: tweets,
			domain.SourceURL:   pages,
		},
		timeout: defaultSharedTimeout,
	}
}

// WithTimeout bounds a shared upstream resolution.
func (uc *ResolveMetadataUseCase) WithTimeout(d time.Duration) *ResolveMetadataUseCase {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

// Execute returns metadata for src, checking the cache before resolving.
// Concurrent misses for the same identity share one upstream call.
func (uc *ResolveMetadataUseCase) Execute(ctx context.Context, src domain.Source) (domain.Metadata, error) {
	id := src.Identity()

	if m, found := uc.lookup(ctx, id); found {
		return *m, nil
	}

	m, shared, err := joinFlight(ctx, &uc.group, id.String(), uc.timeout, func(ctx context.Context) (domain.Metadata, error) {
		return uc.resolveAndStore(ctx, src)
	})
	if err != nil {
		return domain.Metadata{}, err
	}
	if shared {
		log.GlobalDebugCtx(ctx, "shared in-flight resolution", "identity", id.String())
	}
	return m, nil
}

func (uc *ResolveMetadataUseCase) lookup(ctx context.Context, id domain.Identity) (*domain.Metadata, bool) {
	m, found, err := uc.cache.Get(ctx, id)
	if err != nil {
		log.GlobalWarnCtx(ctx, "metadata cache read failed", "identity", id.String(), "error", err)
		found = false
	}
	if found && (m == nil || !m.Valid() || m.Kind != id.Kind) {
		log.GlobalWarnCtx(ctx, "discarding malformed cached metadata", "identity", id.String())
		found = false
	}
	metrics.RecordCacheLookup("metadata", found)

	if found {
		log.GlobalDebugCtx(ctx, "metadata cache hit", "identity", id.String())
		return m, true
	}
	log.GlobalDebugCtx(ctx, "metadata cache miss, resolving", "identity", id.String())
	return nil, false
}

func (uc *ResolveMetadataUseCase) resolveAndStore(ctx context.Context, src domain.Source) (domain.Metadata, error) {
	resolver, ok := uc.resolvers[src.Kind]
	if !ok || resolver == nil {
		return domain.Metadata{}, fmt.Errorf("resolve %s: %w", src.Kind, domain.ErrUnknownSourceKind)
	}

	m, err := resolver.Resolve(ctx, src)
	metrics.RecordResolution(string(src.Kind), err)
	if err != nil {
		return domain.Metadata{}, domain.Wrap(domain.ErrUpstream, "resolve "+string(src.Kind), err)
	}
	if !m.Valid() || m.Kind != src.Kind {
		return domain.Metadata{}, fmt.Errorf("resolve %s: %w: resolver returned %q metadata", src.Kind, domain.ErrUpstream, m.Kind)
	}

	uc.store(ctx, src.Identity(), m)
	// Pages may canonicalize to another URL; alias the metadata there too.
	if canonical := m.Identity(); canonical != src.Identity() {
		uc.store(ctx, canonical, m)
	}

	return m, nil
}

func (uc *ResolveMetadataUseCase) store(ctx context.Context, id domain.Identity, m domain.Metadata) {
	if err := uc.cache.Put(ctx, id, m); err != nil {
		log.GlobalWarnCtx(ctx, "metadata cache write failed", "identity", id.String(), "error", err)
	}
}
