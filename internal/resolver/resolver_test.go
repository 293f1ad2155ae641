package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/internal/similarity"
	"github.com/dshills/callcampaign-mcp/internal/storage"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

const testCampaign int64 = 1

func strPtr(s string) *string { return &s }

func newClient(id int64, name, firstname *string, phone string) *types.Client {
	return &types.Client{ID: id, Name: name, Firstname: firstname, Phone: phone, Campaigns: []int64{testCampaign}}
}

// sliceCursor iterates over a fixed list of clients
type sliceCursor struct {
	clients []*types.Client
	pos     int
	err     error // reported once the list is exhausted
	nextErr func(pos int) error

	mu     sync.Mutex
	closed bool
}

func (c *sliceCursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pos >= len(c.clients) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Client() (*types.Client, error) {
	if c.nextErr != nil {
		if err := c.nextErr(c.pos); err != nil {
			return nil, err
		}
	}
	return c.clients[c.pos-1].Clone(), nil
}

func (c *sliceCursor) Err() error {
	if c.pos >= len(c.clients) {
		return c.err
	}
	return nil
}

func (c *sliceCursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *sliceCursor) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// filterMatcher evaluates a filter in memory with the semantics of the
// SQLite store. Absent names never match a name condition.
func filterMatcher(filter query.Filter) func(*types.Client) bool {
	compiled := make([]*regexp.Regexp, len(filter.Conditions))
	for i, cond := range filter.Conditions {
		compiled[i] = regexp.MustCompile(cond.Pattern.String())
	}
	return func(c *types.Client) bool {
		if !c.InCampaign(filter.CampaignID) {
			return false
		}
		for i, cond := range filter.Conditions {
			var value *string
			switch cond.Field {
			case query.FieldName:
				value = c.Name
			case query.FieldFirstname:
				value = c.Firstname
			case query.FieldPhone:
				value = &c.Phone
			}
			if value == nil || !compiled[i].MatchString(*value) {
				return false
			}
		}
		return true
	}
}

// mockStore implements Store over an in-memory client list
type mockStore struct {
	clients []*types.Client

	matchFunc  func(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error)
	streamFunc func(ctx context.Context, filter query.Filter) (storage.ClientCursor, error)

	mu          sync.Mutex
	matchCalls  int
	streamCalls int
	cursors     []*sliceCursor
}

func (m *mockStore) MatchClients(ctx context.Context, filter query.Filter, limit int) ([]*types.Client, error) {
	m.mu.Lock()
	m.matchCalls++
	m.mu.Unlock()
	if m.matchFunc != nil {
		return m.matchFunc(ctx, filter, limit)
	}

	match := filterMatcher(filter)
	matches := make([]*types.Client, 0)
	for _, c := range m.clients {
		if match(c) {
			matches = append(matches, c.Clone())
			if limit > 0 && len(matches) == limit {
				break
			}
		}
	}
	return matches, nil
}

func (m *mockStore) StreamClients(ctx context.Context, filter query.Filter) (storage.ClientCursor, error) {
	m.mu.Lock()
	m.streamCalls++
	m.mu.Unlock()
	if m.streamFunc != nil {
		return m.streamFunc(ctx, filter)
	}

	match := filterMatcher(filter)
	matches := make([]*types.Client, 0)
	for _, c := range m.clients {
		if match(c) {
			matches = append(matches, c)
		}
	}
	cursor := &sliceCursor{clients: matches}
	m.mu.Lock()
	m.cursors = append(m.cursors, cursor)
	m.mu.Unlock()
	return cursor, nil
}

func (m *mockStore) lastCursor(t *testing.T) *sliceCursor {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.cursors, "no cursor was opened")
	return m.cursors[len(m.cursors)-1]
}

func setupResolver(t *testing.T, store Store, cfg Config) *Resolver {
	t.Helper()
	r, err := New(store, cfg)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)

	r := setupResolver(t, &mockStore{}, Config{})
	assert.Equal(t, DefaultMaxCandidates, r.maxCandidates)
	assert.Equal(t, DefaultFuzzyTimeout, r.fuzzyTimeout)
	assert.Nil(t, r.cache)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.normalize)
}

func TestResolve_InvalidRequest(t *testing.T) {
	store := &mockStore{}
	r := setupResolver(t, store, Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  types.SearchRequest
	}{
		{"missing campaign", types.SearchRequest{Name: "ZRAIKA"}},
		{"negative campaign", types.SearchRequest{Name: "ZRAIKA", CampaignID: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, tt.req)
			assert.ErrorIs(t, err, types.ErrInvalidRequest)
		})
	}
	assert.Zero(t, store.matchCalls)
}

func TestResolve_PhoneOnly(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	r := setupResolver(t, store, Config{})
	ctx := context.Background()

	result, err := r.Resolve(ctx, types.SearchRequest{
		PhoneFragmentStart: strPtr("+3313"),
		PhoneFragmentEnd:   strPtr("90"),
		CampaignID:         testCampaign,
	})
	require.NoError(t, err)
	require.True(t, result.IsFound())
	assert.Equal(t, types.PassExact, result.Pass)
	assert.Equal(t, int64(1), result.Client.ID)
	assert.Zero(t, store.streamCalls)

	// Two phones share the prefix and no name can separate them
	result, err = r.Resolve(ctx, types.SearchRequest{
		Name:               " ",
		PhoneFragmentStart: strPtr("+3313"),
		CampaignID:         testCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PassNone, result.Pass)
	assert.Equal(t, 2, result.Candidates)
}

func TestResolve_ExactUnique(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZrAiKa", FirstName: "rOmAnE", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	require.True(t, result.IsFound())
	assert.Equal(t, types.PassExact, result.Pass)
	assert.Equal(t, int64(1), result.Client.ID)
	assert.Equal(t, 1.0, result.Score)
	assert.Zero(t, store.streamCalls, "exact hit must skip the fuzzy pass")
}

func TestResolve_AmbiguousExactFallsThrough(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33100000001"),
		newClient(2, strPtr("ZRAIKA"), strPtr("Romane"), "+33100000002"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKA", FirstName: "Romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.streamCalls)
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.Equal(t, int64(1), result.Client.ID)
	assert.Equal(t, 2.0, result.Score)
}

func TestResolve_FuzzyFallback(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZAIKA", FirstName: "Romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	require.True(t, result.IsFound())
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.Equal(t, int64(1), result.Client.ID)
	assert.InDelta(t, 5.0/3.0, result.Score, 1e-12)
	// 5/3 is below the early-exit threshold, so both candidates are scored
	assert.Equal(t, 2, result.Candidates)
	assert.True(t, store.lastCursor(t).isClosed())
}

func TestResolve_AcceptanceFloor(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("searchcompletetest"), nil, "+33100000001"),
		newClient(2, strPtr("zzz"), nil, "+33100000002"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.False(t, result.IsFound())
	assert.Equal(t, types.PassNone, result.Pass)
	assert.Nil(t, result.Client)
	assert.Equal(t, 2, result.Candidates)
	assert.True(t, store.lastCursor(t).isClosed())
}

func TestResolve_EarlyExit(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("other"), nil, "+33100000001"),
		newClient(2, strPtr("ZRAIKA"), strPtr("Romane"), "+33100000002"),
		newClient(3, strPtr("ZRAIKA"), strPtr("Romane"), "+33100000003"),
		newClient(4, strPtr("ZRAIKA"), strPtr("Romane"), "+33100000004"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "zraika", FirstName: "romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.Equal(t, int64(2), result.Client.ID)
	assert.Equal(t, 2, result.Candidates)

	cursor := store.lastCursor(t)
	assert.True(t, cursor.isClosed())
	assert.Equal(t, 2, cursor.pos, "decoys after the first perfect match must not be read")
}

func TestResolve_LaterHigherScoreReplacesBest(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIK"), nil, "+33100000001"),
		newClient(2, strPtr("ZRAIKA"), nil, "+33100000002"),
		newClient(3, strPtr("ZRAIKA"), nil, "+33100000003"),
	}}
	r := setupResolver(t, store, Config{})

	// A single name can never reach the early-exit threshold
	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKAS", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.Equal(t, int64(2), result.Client.ID, "ties keep the first candidate")
	assert.Equal(t, 3, result.Candidates)
}

func TestResolve_PhoneFragmentsBoundCandidates(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567891"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name:               "ZRAIKA",
		FirstName:          "Romane",
		PhoneFragmentStart: strPtr("+3313"),
		PhoneFragmentEnd:   strPtr("90"),
		CampaignID:         testCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PassExact, result.Pass)
	assert.Equal(t, int64(1), result.Client.ID)
}

func TestResolve_CampaignScoping(t *testing.T) {
	outsider := newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890")
	outsider.Campaigns = []int64{testCampaign + 1}
	store := &mockStore{clients: []*types.Client{outsider}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKA", FirstName: "Romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.False(t, result.IsFound())
	assert.Zero(t, result.Candidates)
}

func TestResolve_MissingCandidateNamesAreSkipped(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, nil, strPtr("Romane"), "+33100000001"),
		newClient(2, strPtr(""), nil, "+33100000002"),
	}}
	r := setupResolver(t, store, Config{})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKA", FirstName: "Romane", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	require.True(t, result.IsFound())
	assert.Equal(t, int64(1), result.Client.ID)
	assert.Equal(t, 1.0, result.Score)
}

func TestResolve_StoreErrors(t *testing.T) {
	storeErr := errors.New("database is locked")
	candidates := []*types.Client{
		newClient(1, strPtr("other"), nil, "+33100000001"),
		newClient(2, strPtr("another"), nil, "+33100000002"),
	}

	tests := []struct {
		name   string
		store  func() (*mockStore, *sliceCursor)
		cursor bool
	}{
		{
			name: "exact pass",
			store: func() (*mockStore, *sliceCursor) {
				return &mockStore{matchFunc: func(context.Context, query.Filter, int) ([]*types.Client, error) {
					return nil, storeErr
				}}, nil
			},
		},
		{
			name: "opening the cursor",
			store: func() (*mockStore, *sliceCursor) {
				return &mockStore{streamFunc: func(context.Context, query.Filter) (storage.ClientCursor, error) {
					return nil, storeErr
				}}, nil
			},
		},
		{
			name: "iterating",
			store: func() (*mockStore, *sliceCursor) {
				cursor := &sliceCursor{clients: candidates, err: storeErr}
				return &mockStore{streamFunc: func(context.Context, query.Filter) (storage.ClientCursor, error) {
					return cursor, nil
				}}, cursor
			},
		},
		{
			name: "scanning a candidate",
			store: func() (*mockStore, *sliceCursor) {
				cursor := &sliceCursor{clients: candidates, nextErr: func(pos int) error {
					if pos == 2 {
						return storeErr
					}
					return nil
				}}
				return &mockStore{streamFunc: func(context.Context, query.Filter) (storage.ClientCursor, error) {
					return cursor, nil
				}}, cursor
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cursor := tt.store()
			r := setupResolver(t, store, Config{})

			result, err := r.Resolve(context.Background(), types.SearchRequest{
				Name: "other", CampaignID: testCampaign,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrStoreUnavailable)
			assert.ErrorIs(t, err, storeErr)
			assert.False(t, result.IsFound())
			assert.NotEqual(t, types.PassNone, result.Pass, "a failure is not a NotFound result")
			if cursor != nil {
				assert.True(t, cursor.isClosed())
			}
		})
	}
}

func TestResolve_CandidateCeiling(t *testing.T) {
	clients := make([]*types.Client, 0, 10)
	for i := int64(1); i <= 10; i++ {
		clients = append(clients, newClient(i, strPtr("other"), nil, fmt.Sprintf("+331000000%02d", i)))
	}
	clients = append(clients, newClient(11, strPtr("ZRAIKA"), nil, "+33100000099"))
	store := &mockStore{clients: clients}
	r := setupResolver(t, store, Config{MaxCandidates: 3})

	result, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKA", CampaignID: testCampaign,
	})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, 3, result.Candidates)
	assert.False(t, result.IsFound())
	assert.True(t, store.lastCursor(t).isClosed())
}

// endlessCursor yields the same candidate forever, slowly
type endlessCursor struct {
	delay  time.Duration
	closed bool
}

func (c *endlessCursor) Next() bool {
	time.Sleep(c.delay)
	return !c.closed
}

func (c *endlessCursor) Client() (*types.Client, error) {
	return newClient(1, strPtr("other"), nil, "+33100000001"), nil
}

func (c *endlessCursor) Err() error   { return nil }
func (c *endlessCursor) Close() error { c.closed = true; return nil }

func TestResolve_FuzzyTimeout(t *testing.T) {
	cursor := &endlessCursor{delay: 2 * time.Millisecond}
	store := &mockStore{streamFunc: func(context.Context, query.Filter) (storage.ClientCursor, error) {
		return cursor, nil
	}}
	r := setupResolver(t, store, Config{FuzzyTimeout: 10 * time.Millisecond})

	_, err := r.Resolve(context.Background(), types.SearchRequest{
		Name: "ZRAIKA", CampaignID: testCampaign,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, cursor.closed)
}

func TestResolve_CallerCancellation(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("other"), nil, "+33100000001"),
	}}
	r := setupResolver(t, store, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, types.SearchRequest{Name: "ZRAIKA", CampaignID: testCampaign})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestResolve_Idempotent(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	r := setupResolver(t, store, Config{})
	req := types.SearchRequest{Name: "ZAIKA", FirstName: "Romane", CampaignID: testCampaign}

	first, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 6, store.streamCalls, "every resolution ran the fuzzy pass")
}

func TestResolve_Concurrent(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	r := setupResolver(t, store, Config{CacheSize: 16})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := r.Resolve(context.Background(), types.SearchRequest{
				Name: "ZAIKA", FirstName: "Romane", CampaignID: testCampaign,
			})
			assert.NoError(t, err)
			assert.Equal(t, int64(1), result.Client.ID)
		}()
	}
	wg.Wait()
}

func TestResolve_Normalization(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("Élodie"), nil, "+33100000001"),
	}}
	req := types.SearchRequest{Name: "Elodie", CampaignID: testCampaign}

	lower := setupResolver(t, store, Config{})
	result, err := lower.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.InDelta(t, 0.8, result.Score, 1e-12)

	fold := setupResolver(t, store, Config{Normalizer: similarity.NormalizeFold})
	result, err = fold.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, types.PassFuzzy, result.Pass)
	assert.Equal(t, 1.0, result.Score)
}

func TestResolve_Cache(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := setupResolver(t, store, Config{CacheSize: 8, Metrics: metrics})
	ctx := context.Background()
	req := types.SearchRequest{Name: "ZRAIKA", FirstName: "Romane", CampaignID: testCampaign}

	first, err := r.Resolve(ctx, req)
	require.NoError(t, err)
	require.True(t, first.IsFound())

	// Mutating a returned client must not leak into the cache
	*first.Client.Name = "changed"

	// Whitespace around names builds the same filters and shares the entry
	padded := req
	padded.Name = "  ZRAIKA "
	second, err := r.Resolve(ctx, padded)
	require.NoError(t, err)
	assert.Equal(t, "ZRAIKA", second.Client.NameValue())
	assert.Equal(t, 1, store.matchCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))

	r.InvalidateCache()
	_, err = r.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, store.matchCalls)
}

func TestResolve_CacheExpiry(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
	}}
	r := setupResolver(t, store, Config{CacheSize: 8, CacheTTL: time.Minute})
	now := time.Now()
	r.cache.clock = func() time.Time { return now }
	ctx := context.Background()
	req := types.SearchRequest{Name: "ZRAIKA", CampaignID: testCampaign}

	_, err := r.Resolve(ctx, req)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, store.matchCalls)

	now = now.Add(2 * time.Minute)
	_, err = r.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, store.matchCalls)
}

func TestResolve_FailuresAreNotCached(t *testing.T) {
	calls := 0
	store := &mockStore{matchFunc: func(context.Context, query.Filter, int) ([]*types.Client, error) {
		calls++
		return nil, errors.New("disk I/O error")
	}}
	r := setupResolver(t, store, Config{CacheSize: 8})
	req := types.SearchRequest{Name: "ZRAIKA", CampaignID: testCampaign}

	_, err := r.Resolve(context.Background(), req)
	require.Error(t, err)
	_, err = r.Resolve(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRequestKey(t *testing.T) {
	base := types.SearchRequest{Name: "a", FirstName: "b", CampaignID: 1}

	withBlankFragment := base
	withBlankFragment.PhoneFragmentStart = strPtr("  ")
	assert.Equal(t, requestKey(base), requestKey(withBlankFragment))

	// A start fragment and an end fragment with the same text differ
	start := base
	start.PhoneFragmentStart = strPtr("90")
	end := base
	end.PhoneFragmentEnd = strPtr("90")
	assert.NotEqual(t, requestKey(start), requestKey(end))

	otherCampaign := base
	otherCampaign.CampaignID = 2
	assert.NotEqual(t, requestKey(base), requestKey(otherCampaign))
}

func TestMetrics(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := setupResolver(t, store, Config{Metrics: metrics})
	ctx := context.Background()

	_, err := r.Resolve(ctx, types.SearchRequest{Name: "ZRAIKA", FirstName: "Romane", CampaignID: testCampaign})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, types.SearchRequest{Name: "ZAIKA", FirstName: "Romane", CampaignID: testCampaign})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, types.SearchRequest{Name: "nobody", CampaignID: testCampaign})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.resolutions.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.resolutions.WithLabelValues("fuzzy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.resolutions.WithLabelValues("none")))
	assert.Equal(t, map[types.Pass]float64{
		types.PassExact: 1,
		types.PassFuzzy: 1,
		types.PassNone:  1,
	}, metrics.PassCounts())

	count, err := testutil.GatherAndCount(reg, "campaign_resolver_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_CacheHitsAreReported(t *testing.T) {
	store := &mockStore{clients: []*types.Client{
		newClient(1, strPtr("ZRAIKA"), strPtr("Romane"), "+33134567890"),
		newClient(2, strPtr("other"), nil, "+33134567891"),
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	var logs bytes.Buffer
	r := setupResolver(t, store, Config{
		CacheSize: 8,
		Metrics:   metrics,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})
	ctx := context.Background()
	req := types.SearchRequest{Name: "ZAIKA", FirstName: "Romane", CampaignID: testCampaign}

	for i := 0; i < 2; i++ {
		result, err := r.Resolve(ctx, req)
		require.NoError(t, err)
		require.Equal(t, types.PassFuzzy, result.Pass)
	}

	assert.Equal(t, 1, store.streamCalls)
	assert.Equal(t, 2.0, metrics.PassCounts()[types.PassFuzzy])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))

	// Only the fresh resolution fed the candidate histogram
	count, err := testutil.GatherAndCount(reg, "campaign_resolver_fuzzy_candidates")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	var sample dto.Metric
	require.NoError(t, metrics.candidates.Write(&sample))
	assert.Equal(t, uint64(1), sample.GetHistogram().GetSampleCount())

	assert.Equal(t, 2, strings.Count(logs.String(), "msg=\"client resolution\""))
	assert.Contains(t, logs.String(), "cached=false")
	assert.Contains(t, logs.String(), "cached=true")
}

func TestMetrics_Nil(t *testing.T) {
	var metrics *Metrics
	metrics.observe(types.NotFound(), time.Millisecond, false)
	metrics.observe(types.NotFound(), time.Millisecond, true)
	metrics.storeError()
	assert.Equal(t, 0.0, metrics.PassCounts()[types.PassExact])
}
