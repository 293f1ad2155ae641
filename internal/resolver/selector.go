package resolver

import (
	"context"
	"time"

	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// outcome is what a pass hands to the selector
type outcome struct {
	client     *types.Client
	pass       types.Pass
	score      float64
	candidates int
	truncated  bool
	bestScore  float64 // best fuzzy score, kept when it fell below the floor
}

// selectResult wraps a pass outcome into a MatchResult. The client and
// score are passed through untouched.
func selectResult(out outcome) types.MatchResult {
	var result types.MatchResult
	if out.client != nil {
		result = types.Found(out.client, out.pass, out.score)
	} else {
		result = types.NotFound()
	}
	result.Candidates = out.candidates
	result.Truncated = out.truncated
	return result
}

// report records which pass produced result, whether it came from a fresh
// resolution or from the result cache
func (r *Resolver) report(ctx context.Context, campaignID int64, result types.MatchResult, out *outcome, elapsed time.Duration) {
	cached := out == nil
	r.metrics.observe(result, elapsed, cached)

	attrs := []any{
		"campaign", campaignID,
		"pass", string(result.Pass),
		"score", result.Score,
		"candidates", result.Candidates,
		"truncated", result.Truncated,
		"cached", cached,
		"duration", elapsed,
	}
	if !cached {
		attrs = append(attrs, "best_score", out.bestScore)
	}
	r.logger.InfoContext(ctx, "client resolution", attrs...)

	if result.Truncated && !cached {
		r.logger.WarnContext(ctx, "fuzzy scan stopped at candidate ceiling",
			"campaign", campaignID,
			"max_candidates", r.maxCandidates)
	}
}
