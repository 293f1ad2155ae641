package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// Roster is a campaign client list as read from a YAML file
//
//	campaign:
//	  name: spring
//	  area: north
//	  active: true
//	clients:
//	  - name: ZRAIKA
//	    firstname: Romane
//	    phone: "+33 1 34 56 78 90"
type Roster struct {
	Campaign RosterCampaign `yaml:"campaign"`
	Clients  []RosterEntry  `yaml:"clients"`
}

// RosterCampaign names the campaign the roster fills. A non-zero ID targets an
// existing campaign; otherwise a new campaign is created.
type RosterCampaign struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Area   string `yaml:"area"`
	Active bool   `yaml:"active"`
}

// RosterEntry is one client line of a roster
type RosterEntry struct {
	Name      string `yaml:"name"`
	Firstname string `yaml:"firstname"`
	Phone     string `yaml:"phone"`
}

// LoadRoster decodes a roster from r
func LoadRoster(r io.Reader) (*Roster, error) {
	var roster Roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&roster); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("roster is empty")
		}
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	if err := roster.Campaign.validate(); err != nil {
		return nil, err
	}
	return &roster, nil
}

// LoadRosterFile reads and decodes the roster at path
func LoadRosterFile(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	roster, err := LoadRoster(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roster, nil
}

func (c RosterCampaign) validate() error {
	if c.ID < 0 {
		return fmt.Errorf("campaign id must be positive, got %d", c.ID)
	}
	if c.ID == 0 && (strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Area) == "") {
		return fmt.Errorf("campaign needs an id, or a name and an area")
	}
	return nil
}

// phoneSeparators are dropped from phone numbers before validation
var phoneSeparators = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "", "\t", "")

// NormalizePhone strips common separators and checks the result is an
// optional '+' followed by digits
func NormalizePhone(s string) (string, error) {
	phone := phoneSeparators.Replace(strings.TrimSpace(s))
	if phone == "" {
		return "", types.ErrMissingPhone
	}
	if err := types.ValidatePhone(phone); err != nil {
		return "", err
	}
	return phone, nil
}

// toClient validates an entry and converts it to a client of campaignID
func (e RosterEntry) toClient(campaignID int64) (*types.Client, error) {
	phone, err := NormalizePhone(e.Phone)
	if err != nil {
		return nil, err
	}
	return &types.Client{
		Name:      optional(e.Name),
		Firstname: optional(e.Firstname),
		Phone:     phone,
		Campaigns: []int64{campaignID},
	}, nil
}

// optional trims s and maps blank values to an absent name
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
