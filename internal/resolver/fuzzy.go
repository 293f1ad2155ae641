package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/callcampaign-mcp/internal/query"
	"github.com/dshills/callcampaign-mcp/internal/similarity"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// scorer computes the combined name similarity of a candidate
type scorer struct {
	normalize similarity.Normalizer
	name      string // normalized, empty when not supplied
	firstName string
}

func newScorer(req types.SearchRequest, normalize similarity.Normalizer) scorer {
	s := scorer{normalize: normalize}
	if name := strings.TrimSpace(req.Name); name != "" {
		s.name = normalize(name)
	}
	if firstName := strings.TrimSpace(req.FirstName); firstName != "" {
		s.firstName = normalize(firstName)
	}
	return s
}

// score sums the similarity of each supplied name the candidate also has
func (s scorer) score(c *types.Client) float64 {
	var total float64
	if s.name != "" {
		if name := c.NameValue(); name != "" {
			total += similarity.Similarity(s.name, s.normalize(name))
		}
	}
	if s.firstName != "" {
		if firstName := c.FirstnameValue(); firstName != "" {
			total += similarity.Similarity(s.firstName, s.normalize(firstName))
		}
	}
	return total
}

// accumulator is the best-so-far state folded over the candidate stream
type accumulator struct {
	best      *types.Client
	bestScore float64
	examined  int
}

// fold records a scored candidate. Only a strictly greater score replaces
// the best, so the first candidate reaching a score keeps it.
func (a accumulator) fold(c *types.Client, score float64) accumulator {
	a.examined++
	if score > a.bestScore {
		a.best = c
		a.bestScore = score
	}
	return a
}

// settled reports whether no later candidate may override the best
func (a accumulator) settled() bool {
	return a.bestScore >= EarlyExitThreshold
}

// fuzzyPass streams the phone-filtered candidates of the campaign and keeps
// the best scoring one. The cursor is closed on every return path.
func (r *Resolver) fuzzyPass(ctx context.Context, filter query.Filter, s scorer) (outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.fuzzyTimeout)
	defer cancel()

	cursor, err := r.store.StreamClients(ctx, filter)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: fuzzy pass: %w", types.ErrStoreUnavailable, err)
	}
	defer func() { _ = cursor.Close() }()

	var acc accumulator
	truncated := false
	for !acc.settled() {
		if acc.examined >= r.maxCandidates {
			truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return outcome{}, fmt.Errorf("%w: fuzzy pass interrupted after %d candidates: %w",
				types.ErrStoreUnavailable, acc.examined, err)
		}
		if !cursor.Next() {
			break
		}

		candidate, err := cursor.Client()
		if err != nil {
			return outcome{}, fmt.Errorf("%w: fuzzy pass: %w", types.ErrStoreUnavailable, err)
		}
		acc = acc.fold(candidate, s.score(candidate))
	}

	if err := cursor.Err(); err != nil {
		return outcome{}, fmt.Errorf("%w: fuzzy pass: %w", types.ErrStoreUnavailable, err)
	}

	out := outcome{
		pass:       types.PassNone,
		candidates: acc.examined,
		truncated:  truncated,
		bestScore:  acc.bestScore,
	}
	if acc.best != nil && acc.bestScore >= AcceptThreshold {
		out.client = acc.best
		out.pass = types.PassFuzzy
		out.score = acc.bestScore
	}
	return out, nil
}
