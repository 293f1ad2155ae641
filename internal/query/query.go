package query

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// ErrNoCampaign is returned when a request is not scoped to a campaign
var ErrNoCampaign = errors.New("campaign is required")

// Field names a client column a condition applies to
type Field string

const (
	FieldName      Field = "name"
	FieldFirstname Field = "firstname"
	FieldPhone     Field = "phone"
)

// Pattern is a regular expression built from escaped literals.
// The zero value matches nothing and is never emitted by the builders.
type Pattern struct {
	expr string
}

// String returns the regular expression source
func (p Pattern) String() string {
	return p.expr
}

// PhoneStart matches phones beginning with an optional '+' then start
func PhoneStart(start string) Pattern {
	return Pattern{expr: `^\+?` + regexp.QuoteMeta(start)}
}

// PhoneEnd matches phones ending with end
func PhoneEnd(end string) Pattern {
	return Pattern{expr: regexp.QuoteMeta(end) + `$`}
}

// PhoneRange matches phones made of an optional '+', start, any digits, then end
func PhoneRange(start, end string) Pattern {
	return Pattern{expr: `^\+?` + regexp.QuoteMeta(start) + `[0-9]*` + regexp.QuoteMeta(end) + `$`}
}

// EqualFold matches the whole value case-insensitively
func EqualFold(value string) Pattern {
	return Pattern{expr: `(?i)^` + regexp.QuoteMeta(value) + `$`}
}

// Condition requires Field to match Pattern
type Condition struct {
	Field   Field
	Pattern Pattern
}

// Filter selects the clients of one campaign matching every condition
type Filter struct {
	CampaignID int64
	Conditions []Condition
}

// with returns a copy of f extended by cond
func (f Filter) with(cond Condition) Filter {
	conditions := make([]Condition, 0, len(f.Conditions)+1)
	conditions = append(conditions, f.Conditions...)
	conditions = append(conditions, cond)
	return Filter{CampaignID: f.CampaignID, Conditions: conditions}
}

// Set holds the two filters a resolution runs
type Set struct {
	Phone Filter // campaign + phone fragments, feeds the fuzzy pass
	Exact Filter // Phone + case-insensitive name equality, feeds the exact pass
}

// Build turns a search request into its phone and exact filters
func Build(req types.SearchRequest) (Set, error) {
	if req.CampaignID <= 0 {
		return Set{}, ErrNoCampaign
	}

	phone := Filter{CampaignID: req.CampaignID}
	start, hasStart := types.Fragment(req.PhoneFragmentStart)
	end, hasEnd := types.Fragment(req.PhoneFragmentEnd)
	switch {
	case hasStart && hasEnd:
		phone = phone.with(Condition{Field: FieldPhone, Pattern: PhoneRange(start, end)})
	case hasStart:
		phone = phone.with(Condition{Field: FieldPhone, Pattern: PhoneStart(start)})
	case hasEnd:
		phone = phone.with(Condition{Field: FieldPhone, Pattern: PhoneEnd(end)})
	}

	exact := phone
	if name := strings.TrimSpace(req.Name); name != "" {
		exact = exact.with(Condition{Field: FieldName, Pattern: EqualFold(name)})
	}
	if firstName := strings.TrimSpace(req.FirstName); firstName != "" {
		exact = exact.with(Condition{Field: FieldFirstname, Pattern: EqualFold(firstName)})
	}

	return Set{Phone: phone, Exact: exact}, nil
}
