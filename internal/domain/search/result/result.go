// Package result holds the response shapes of discovery operations.
package result

import "github.com/kailas-cloud/showroomdex/internal/domain/showroom"

// Paging describes whether a listing can be continued.
type Paging string

// Paging states.
const (
	PagingEnabled  Paging = "enabled"
	PagingEnd      Paging = "end"
	PagingDisabled Paging = "disabled"
)

// ReasonMultipleGeoBuckets marks pages merged from several geohash prefixes.
const ReasonMultipleGeoBuckets = "multiple_geo_buckets"

// Marker is the minimal projection used for map rendering.
type Marker struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     showroom.Type    `json:"type,omitempty"`
	Category string           `json:"category,omitempty"`
	Coords   *showroom.Coords `json:"coords,omitempty"`
}

// ToMarker projects a showroom down to a Marker.
func ToMarker(s *showroom.Showroom) Marker {
	return Marker{ID: s.ID, Name: s.Name, Type: s.Type, Category: s.Category, Coords: s.Geo.Coords}
}

// Page is one listing page. Exactly one of Items and Markers is set,
// depending on the requested projection.
type Page struct {
	Items      []showroom.Showroom
	Markers    []Marker
	NextCursor string
	HasMore    bool
	Paging     Paging
	Reason     string
}

// Len returns the number of records on the page.
func (p *Page) Len() int {
	if p.Markers != nil {
		return len(p.Markers)
	}
	return len(p.Items)
}

// CountMode describes how a count was computed.
type CountMode string

// Count modes.
const (
	CountNoGeo        CountMode = "no_geo"
	CountSinglePrefix CountMode = "single_prefix"
	CountMultiPrefix  CountMode = "multi_prefix"
)

// Count is the result of a counting request.
type Count struct {
	Total         int
	Mode          CountMode
	PrefixesCount int
}

// SuggestionType is the source of a suggestion.
type SuggestionType string

// Suggestion sources, in merge priority.
const (
	SuggestShowroom SuggestionType = "showroom"
	SuggestCity     SuggestionType = "city"
	SuggestBrand    SuggestionType = "brand"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Type    SuggestionType    `json:"type"`
	Value   string            `json:"value"`
	Payload map[string]string `json:"payload"`
}
