// Package types provides shared type definitions for the campaign client
// resolver.
//
// # Core Types
//
// Client is a contact belonging to one or more campaigns. Name and first
// name may be absent; the phone is stored in normalized form (an optional
// leading '+' followed by digits):
//
//	name, first := "ZRAIKA", "Romane"
//	client := &types.Client{
//	    Name:      &name,
//	    Firstname: &first,
//	    Phone:     "+33134567890",
//	}
//
// SearchRequest is what a caller knows about the client it is looking for.
// Phone fragments narrow the candidate set and are matched literally:
//
//	start := "+3313"
//	req := types.SearchRequest{
//	    Name:               "ZAIKA",
//	    FirstName:          "Romane",
//	    PhoneFragmentStart: &start,
//	    CampaignID:         campaign.ID,
//	}
//
// # Results
//
// MatchResult reports which pass identified the client:
//
//	result.Pass == types.PassExact // unique case-insensitive match
//	result.Pass == types.PassFuzzy // best similarity-scored candidate
//	result.Pass == types.PassNone  // no client found
//
// A failed lookup is not an error. Store failures are reported as
// ErrStoreUnavailable so callers can tell "nothing matched" apart from
// "could not look".
package types
