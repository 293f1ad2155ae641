// Package query builds the campaign-scoped filters used to look up clients.
//
// Build produces two filters from a search request: a phone filter that
// bounds the candidate set with the caller's phone fragments, and an exact
// filter that adds case-insensitive full-string equality on the supplied
// names. Fragments and names are escaped with regexp.QuoteMeta before they
// become part of a pattern, and patterns can only be created through the
// builder functions in this package.
//
//	set, err := query.Build(req)
//	set.Phone.Conditions // [phone ~ ^\+?\+3313[0-9]*90$]
//	set.Exact.Conditions // [phone ~ ..., name ~ (?i)^ZAIKA$, firstname ~ (?i)^Romane$]
package query
