package resolver

import (
	"context"
	"fmt"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// exactPass succeeds only when exactly one client satisfies the exact filter.
// Zero and several matches both fall through to the fuzzy pass.
func (r *Resolver) exactPass(ctx context.Context, filter query.Filter) (*types.Client, bool, error) {
	clients, err := r.store.MatchClients(ctx, filter, exactRowLimit)
	if err != nil {
		return nil, false, fmt.Errorf("%w: exact pass: %w", types.ErrStoreUnavailable, err)
	}
	if len(clients) != 1 {
		return nil, false, nil
	}
	return clients[0], true, nil
}
