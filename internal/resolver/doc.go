// Package resolver identifies the client of a campaign a caller refers to
// from partial names and phone fragments.
//
// A resolution runs two passes in sequence:
//
//   - Exact: a case-insensitive, full-string match on the supplied names,
//     narrowed by the phone fragments. It succeeds only when exactly one
//     client matches; no match and several matches both fall through.
//   - Fuzzy: the phone-filtered clients of the campaign are streamed and
//     scored by name similarity. A candidate scoring 1.8 or more ends the
//     scan. The best candidate is accepted when its score is at least 0.5.
//
// # Basic Usage
//
//	r, err := resolver.New(store, resolver.Config{Logger: logger})
//	if err != nil {
//	    return err
//	}
//
//	result, err := r.Resolve(ctx, types.SearchRequest{
//	    Name:       "ZAIKA",
//	    FirstName:  "Romane",
//	    CampaignID: campaign.ID,
//	})
//	switch {
//	case errors.Is(err, types.ErrStoreUnavailable):
//	    // the store could not be queried
//	case result.IsFound():
//	    fmt.Println(result.Pass, result.Client.Phone)
//	default:
//	    // no client found
//	}
//
// # Limits
//
// The fuzzy scan stops after Config.MaxCandidates candidates and reports a
// truncated result. Config.FuzzyTimeout bounds its duration; a scan that
// times out fails with types.ErrStoreUnavailable.
//
// # Caching
//
// Setting Config.CacheSize enables an LRU of results with a TTL. Cached
// results are deep copies. Call InvalidateCache after importing clients.
package resolver
