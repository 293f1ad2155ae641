package types

// Pass identifies which resolution pass produced a result
type Pass string

const (
	PassExact Pass = "exact"
	PassFuzzy Pass = "fuzzy"
	PassNone  Pass = "none"
)

// MatchResult is the outcome of a client resolution.
// Found results carry the client and the pass that matched it;
// NotFound results have a nil Client and Pass == PassNone.
type MatchResult struct {
	Client *Client
	Pass   Pass

	// Scoring
	Score      float64 // 1.0 for exact hits, combined similarity for fuzzy hits
	Candidates int     // Candidates examined by the fuzzy pass
	Truncated  bool    // Fuzzy pass stopped at the candidate ceiling
}

// Found builds a successful result
func Found(client *Client, pass Pass, score float64) MatchResult {
	return MatchResult{Client: client, Pass: pass, Score: score}
}

// NotFound builds an empty result
func NotFound() MatchResult {
	return MatchResult{Pass: PassNone}
}

// IsFound reports whether a client was identified
func (r MatchResult) IsFound() bool {
	return r.Client != nil && r.Pass != PassNone
}

// Clone returns a deep copy of the result
func (r MatchResult) Clone() MatchResult {
	r.Client = r.Client.Clone()
	return r
}
