package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/internal/similarity"
	"github.com/dshills/callcampaign-mcp/internal/storage"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

const (
	// AcceptThreshold is the minimum combined score of an accepted fuzzy candidate
	AcceptThreshold = 0.5
	// EarlyExitThreshold stops the fuzzy scan once a candidate reaches it
	EarlyExitThreshold = 1.8

	// DefaultMaxCandidates bounds the fuzzy scan of a single resolution
	DefaultMaxCandidates = 50000
	// DefaultFuzzyTimeout bounds the wall time of the fuzzy scan
	DefaultFuzzyTimeout = 5 * time.Second
	// DefaultCacheTTL is the lifetime of cached results when caching is enabled
	DefaultCacheTTL = 10 * time.Minute

	// exactRowLimit is enough rows to tell one match from several
	exactRowLimit = 2
)

// Store is the subset of the client store the resolver reads from
type Store interface {
	MatchClients(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error)
	StreamClients(ctx context.Context, filter query.Filter) (storage.ClientCursor, error)
}

// Config tunes a Resolver. The zero value is usable.
type Config struct {
	Logger     *slog.Logger          // nil discards resolution logs
	Metrics    *Metrics              // nil disables metrics
	Normalizer similarity.Normalizer // nil lowercases names

	MaxCandidates int           // <= 0 selects DefaultMaxCandidates
	FuzzyTimeout  time.Duration // <= 0 selects DefaultFuzzyTimeout

	CacheSize int           // 0 disables the result cache
	CacheTTL  time.Duration // <= 0 selects DefaultCacheTTL
}

// Resolver identifies the single client of a campaign a caller refers to.
// It is safe for concurrent use; each resolution only reads from the store.
type Resolver struct {
	store         Store
	logger        *slog.Logger
	metrics       *Metrics
	normalize     similarity.Normalizer
	maxCandidates int
	fuzzyTimeout  time.Duration
	cache         *resultCache
}

// New creates a Resolver reading from store
func New(store Store, cfg Config) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	r := &Resolver{
		store:         store,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		normalize:     cfg.Normalizer,
		maxCandidates: cfg.MaxCandidates,
		fuzzyTimeout:  cfg.FuzzyTimeout,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.normalize == nil {
		r.normalize = similarity.NormalizeLowercase
	}
	if r.maxCandidates <= 0 {
		r.maxCandidates = DefaultMaxCandidates
	}
	if r.fuzzyTimeout <= 0 {
		r.fuzzyTimeout = DefaultFuzzyTimeout
	}

	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		cache, err := newResultCache(cfg.CacheSize, ttl)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}

	return r, nil
}

// Resolve runs the exact pass, then the fuzzy pass when the exact pass does
// not identify exactly one client. A missing client is reported as a
// NotFound result, never as an error. Store failures wrap
// types.ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, req types.SearchRequest) (types.MatchResult, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return types.MatchResult{}, err
	}

	set, err := query.Build(req)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
	}

	// Check cache if enabled
	if r.cache != nil {
		if cached, ok := r.cache.get(req); ok {
			r.report(ctx, req.CampaignID, cached, nil, time.Since(startTime))
			return cached, nil
		}
	}

	out, err := r.resolve(ctx, set, req)
	if err != nil {
		r.metrics.storeError()
		r.logger.WarnContext(ctx, "client resolution failed",
			"campaign", req.CampaignID,
			"error", err,
			"duration", time.Since(startTime))
		return types.MatchResult{}, err
	}

	result := selectResult(out)
	r.report(ctx, req.CampaignID, result, &out, time.Since(startTime))

	if r.cache != nil {
		r.cache.put(req, result)
	}

	return result, nil
}

// resolve runs the two passes strictly in sequence
func (r *Resolver) resolve(ctx context.Context, set query.Set, req types.SearchRequest) (outcome, error) {
	client, ok, err := r.exactPass(ctx, set.Exact)
	if err != nil {
		return outcome{}, err
	}
	if ok {
		return outcome{client: client, pass: types.PassExact, score: 1}, nil
	}

	return r.fuzzyPass(ctx, set.Phone, newScorer(req, r.normalize))
}

// InvalidateCache drops every cached result. Callers invalidate after the
// client population changes.
func (r *Resolver) InvalidateCache() {
	if r.cache != nil {
		r.cache.purge()
	}
}
