package types

import (
	"fmt"
	"regexp"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]+$`)

// Client is a campaign contact as stored by the backend
type Client struct {
	ID        int64
	Name      *string // Nullable
	Firstname *string // Nullable
	Phone     string  // Optional leading '+' followed by digits
	Campaigns []int64
}

// NameValue returns the client name or "" when absent
func (c *Client) NameValue() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// FirstnameValue returns the client first name or "" when absent
func (c *Client) FirstnameValue() string {
	if c.Firstname == nil {
		return ""
	}
	return *c.Firstname
}

// InCampaign reports whether the client belongs to the given campaign
func (c *Client) InCampaign(campaignID int64) bool {
	for _, id := range c.Campaigns {
		if id == campaignID {
			return true
		}
	}
	return false
}

// Validate checks the stored phone format
func (c *Client) Validate() error {
	if c.Phone == "" {
		return ErrMissingPhone
	}
	if !phonePattern.MatchString(c.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

// Clone returns a deep copy of the client
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	dst := &Client{
		ID:        c.ID,
		Phone:     c.Phone,
		Campaigns: append([]int64(nil), c.Campaigns...),
	}
	if c.Name != nil {
		name := *c.Name
		dst.Name = &name
	}
	if c.Firstname != nil {
		firstname := *c.Firstname
		dst.Firstname = &firstname
	}
	return dst
}

// Campaign scopes which clients are eligible for a search
type Campaign struct {
	ID     int64
	Name   string
	Area   string
	Active bool
}

// ValidatePhone reports whether s is in normalized phone form
func ValidatePhone(s string) error {
	if !phonePattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, s)
	}
	return nil
}
