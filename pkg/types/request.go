package types

import (
	"fmt"
	"strings"
)

// SearchRequest describes the client a caller is trying to identify.
// Name and FirstName are "not supplied" when empty. Phone fragments are
// optional and compared literally.
type SearchRequest struct {
	Name               string
	FirstName          string
	PhoneFragmentStart *string
	PhoneFragmentEnd   *string
	CampaignID         int64
}

// Fragment trims an optional phone fragment. Blank fragments are absent.
func Fragment(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// Validate checks request fields before the request reaches the resolver.
// Names are optional: a request carrying only phone fragments is resolved on
// the phone filter alone.
func (r *SearchRequest) Validate() error {
	if r.CampaignID <= 0 {
		return fmt.Errorf("%w: campaign is required", ErrInvalidRequest)
	}
	return nil
}
