package showroomdex

import (
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Showroom is a seller storefront as stored.
type Showroom = showroom.Showroom

// Marker is the map projection of a showroom.
type Marker = result.Marker

// Suggestion is one typed autocomplete entry.
type Suggestion = result.Suggestion

// Role is the caller role asserted by the embedding application.
type Role string

// Caller roles.
const (
	RoleGuest Role = ""
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Caller identifies who is asking. A nil *Caller is a guest.
type Caller struct {
	UID  string
	Role Role
}

// BlockedCountry is one excluded jurisdiction with every name it may be stored under.
type BlockedCountry struct {
	Code  string
	Names []string
}

// Limits bounds request parameters. Zero fields keep their defaults.
type Limits struct {
	DefaultPageSize     int
	MaxPageSize         int
	DefaultSuggestLimit int
	MaxSuggestLimit     int
	MaxGeohashPrefixes  int
	DefaultNearRadiusKm float64
	MaxNearRadiusKm     float64
}

// Page is one listing page. Markers is set instead of Items for the marker projection.
type Page struct {
	Items      []Showroom
	Markers    []Marker
	NextCursor string
	HasMore    bool
	// Paging is "enabled", "end" or "disabled".
	Paging string
	Reason string
}

// Count is the number of matching showrooms and how it was computed.
type Count struct {
	Total         int
	Mode          string
	PrefixesCount int
}

func toPage(p *result.Page) *Page {
	return &Page{
		Items:      p.Items,
		Markers:    p.Markers,
		NextCursor: p.NextCursor,
		HasMore:    p.HasMore,
		Paging:     string(p.Paging),
		Reason:     p.Reason,
	}
}

func toCount(c *result.Count) Count {
	return Count{Total: c.Total, Mode: string(c.Mode), PrefixesCount: c.PrefixesCount}
}

func (c *Caller) toDomain() *visibility.Caller {
	if c == nil {
		return nil
	}
	switch c.Role {
	case RoleOwner:
		return &visibility.Caller{UID: c.UID, Role: visibility.RoleOwner}
	case RoleAdmin:
		return &visibility.Caller{UID: c.UID, Role: visibility.RoleAdmin}
	default:
		return nil
	}
}

// Coords is a WGS84 point.
type Coords = showroom.Coords
