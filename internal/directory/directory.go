// Package directory looks up people in the University directory (Lookup) and
// turns them into request principals.
package directory

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrPersonNotFound is returned when the directory has no entry for a crsid.
	ErrPersonNotFound = errors.New("directory: person not found")
	// ErrLookupUnavailable wraps transport and backend failures.
	ErrLookupUnavailable = errors.New("directory: lookup unavailable")
)

// Directory resolves a crsid to a Person.
type Directory interface {
	Name() string
	LookupPerson(ctx context.Context, crsid string) (*Person, error)
}

// Person is the directory view of a user.
type Person struct {
	CRSID        string        `json:"crsid"`
	DisplayName  string        `json:"display_name"`
	VisibleName  string        `json:"visible_name,omitempty"`
	Groups       []Group       `json:"groups"`
	Institutions []Institution `json:"institutions"`
}

// Group is a Lookup group membership.
type Group struct {
	ID   int64  `json:"groupid"`
	Name string `json:"name,omitempty"`
}

// Institution is a Lookup institution membership.
type Institution struct {
	InstID string `json:"instid"`
	Name   string `json:"name,omitempty"`
}

// GroupIDs returns the numeric ids of every group the person belongs to.
func (p *Person) GroupIDs() []int64 {
	if p == nil {
		return nil
	}
	out := make([]int64, 0, len(p.Groups))
	for _, g := range p.Groups {
		out = append(out, g.ID)
	}
	return out
}

// InstitutionCodes returns the instids of every institution the person belongs to.
func (p *Person) InstitutionCodes() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Institutions))
	for _, inst := range p.Institutions {
		if inst.InstID != "" {
			out = append(out, inst.InstID)
		}
	}
	return out
}

func parseGroupIDs(values []string) []Group {
	groups := make([]Group, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		groups = append(groups, Group{ID: id})
	}
	return groups
}
