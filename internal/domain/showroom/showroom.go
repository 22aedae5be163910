// Package showroom holds the seller record consumed by discovery.
package showroom

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/domain/geo"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
)

// Status is the moderation state of a showroom.
type Status string

// Moderation states.
const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

// Statuses lists every moderation state.
var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusDeleted}

// Type is the assortment type.
type Type string

// Assortment types.
const (
	TypeUnique     Type = "unique"
	TypeMultibrand Type = "multibrand"
)

// SubcategoryGroup is the only category group that owns subcategories.
const SubcategoryGroup = "clothing"

// Coords is a WGS84 point.
type Coords struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Geo is the location block of a showroom.
type Geo struct {
	City           string  `json:"city,omitempty" yaml:"city,omitempty"`
	CityNormalized string  `json:"cityNormalized,omitempty" yaml:"cityNormalized,omitempty"`
	Country        string  `json:"country,omitempty" yaml:"country,omitempty"`
	Coords         *Coords `json:"coords,omitempty" yaml:"coords,omitempty"`
	Geohash        string  `json:"geohash,omitempty" yaml:"geohash,omitempty"`
	PlaceID        string  `json:"placeId,omitempty" yaml:"placeId,omitempty"`
}

// Showroom is a seller storefront. Discovery never mutates it.
type Showroom struct {
	ID               string            `json:"id" yaml:"id"`
	OwnerUID         string            `json:"ownerUid" yaml:"ownerUid"`
	Status           Status            `json:"status" yaml:"status"`
	Name             string            `json:"name" yaml:"name"`
	NameNormalized   string            `json:"nameNormalized" yaml:"nameNormalized"`
	Type             Type              `json:"type,omitempty" yaml:"type,omitempty"`
	Availability     string            `json:"availability,omitempty" yaml:"availability,omitempty"`
	Category         string            `json:"category,omitempty" yaml:"category,omitempty"`
	CategoryGroup    string            `json:"categoryGroup,omitempty" yaml:"categoryGroup,omitempty"`
	Subcategories    []string          `json:"subcategories,omitempty" yaml:"subcategories,omitempty"`
	Brands           []string          `json:"brands,omitempty" yaml:"brands,omitempty"`
	BrandsNormalized []string          `json:"brandsNormalized,omitempty" yaml:"brandsNormalized,omitempty"`
	BrandsMap        map[string]bool   `json:"brandsMap,omitempty" yaml:"brandsMap,omitempty"`
	Country          string            `json:"country,omitempty" yaml:"country,omitempty"`
	Geo              Geo               `json:"geo" yaml:"geo"`
	Contacts         map[string]string `json:"contacts,omitempty" yaml:"contacts,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// Derive recomputes every server-derived field from its canonical counterpart.
// Records without a brand list keep their legacy brandsMap, re-keyed.
func (s *Showroom) Derive() {
	s.NameNormalized = NormalizeText(s.Name)

	if len(s.Brands) > 0 {
		s.BrandsNormalized = nil
		s.BrandsMap = make(map[string]bool, len(s.Brands))
		for _, b := range s.Brands {
			if n := NormalizeText(b); n != "" && !slices.Contains(s.BrandsNormalized, n) {
				s.BrandsNormalized = append(s.BrandsNormalized, n)
			}
			if k := BrandKey(b); k != "" {
				s.BrandsMap[k] = true
			}
		}
	} else if len(s.BrandsMap) > 0 {
		legacy := make(map[string]bool, len(s.BrandsMap))
		for k, v := range s.BrandsMap {
			if v {
				legacy[BrandKey(k)] = true
			}
		}
		s.BrandsMap = legacy
	}

	s.Geo.CityNormalized = NormalizeCity(s.Geo.City)
	s.Geo.Geohash = ""
	if c := s.Geo.Coords; c != nil && geo.ValidateCoordinates(c.Lat, c.Lng) == nil {
		s.Geo.Geohash = geo.Encode(c.Lat, c.Lng, geo.StoredPrecision)
	}

	if strings.TrimSpace(s.Country) == "" {
		s.Country = strings.TrimSpace(s.Geo.Country)
	}
	s.UpdatedAt = s.UpdatedAt.UTC().Truncate(time.Millisecond)
}

// CheckDerived reports the first derived field that disagrees with its canonical source.
func (s *Showroom) CheckDerived() error {
	want := *s
	want.BrandsNormalized = slices.Clone(s.BrandsNormalized)
	want.BrandsMap = make(map[string]bool, len(s.BrandsMap))
	for k, v := range s.BrandsMap {
		want.BrandsMap[k] = v
	}
	want.Derive()

	switch {
	case want.NameNormalized != s.NameNormalized:
		return fmt.Errorf("nameNormalized %q, want %q", s.NameNormalized, want.NameNormalized)
	case !slices.Equal(want.BrandsNormalized, s.BrandsNormalized):
		return fmt.Errorf("brandsNormalized %v, want %v", s.BrandsNormalized, want.BrandsNormalized)
	case !sameKeys(want.BrandsMap, s.BrandsMap):
		return fmt.Errorf("brandsMap %v, want %v", s.BrandsMap, want.BrandsMap)
	case want.Geo.CityNormalized != s.Geo.CityNormalized:
		return fmt.Errorf("geo.cityNormalized %q, want %q", s.Geo.CityNormalized, want.Geo.CityNormalized)
	case want.Geo.Geohash != s.Geo.Geohash:
		return fmt.Errorf("geo.geohash %q, want %q", s.Geo.Geohash, want.Geo.Geohash)
	}
	return nil
}

func sameKeys(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// BrandKeys returns the brandsMap keys in sorted order.
func (s *Showroom) BrandKeys() []string {
	keys := make([]string, 0, len(s.BrandsMap))
	for k, v := range s.BrandsMap {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Strings returns the non-empty string values stored at a logical path.
func (s *Showroom) Strings(path string) []string {
	switch path {
	case "id":
		return nonEmpty(s.ID)
	case "ownerUid":
		return nonEmpty(s.OwnerUID)
	case "status":
		return nonEmpty(string(s.Status))
	case "type":
		return nonEmpty(string(s.Type))
	case "category":
		return nonEmpty(s.Category)
	case "categoryGroup":
		return nonEmpty(s.CategoryGroup)
	case "subcategories":
		return s.Subcategories
	case "brandsMap":
		return s.BrandKeys()
	case "brandsNormalized":
		return s.BrandsNormalized
	case "country":
		return nonEmpty(s.Country)
	case order.FieldName:
		return nonEmpty(s.NameNormalized)
	case order.FieldUpdatedAt:
		return nonEmpty(s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	case "geo.cityNormalized":
		return nonEmpty(s.Geo.CityNormalized)
	case "geo.country":
		return nonEmpty(s.Geo.Country)
	case order.FieldGeohash:
		return nonEmpty(s.Geo.Geohash)
	default:
		return nil
	}
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// SortValue returns the value of a sortable path.
func (s *Showroom) SortValue(field string) order.Value {
	switch field {
	case order.FieldUpdatedAt:
		return order.Time(s.UpdatedAt)
	case order.FieldName:
		return order.String(s.NameNormalized)
	case order.FieldGeohash:
		return order.String(s.Geo.Geohash)
	default:
		vals := s.Strings(field)
		if len(vals) == 0 {
			return order.String("")
		}
		return order.String(vals[0])
	}
}

// Position returns the keyset position of the record under k.
func (s *Showroom) Position(k order.Key) order.Position {
	return order.Position{Value: s.SortValue(k.Field), ID: s.ID}
}

// ParseStatus validates a status string.
func ParseStatus(v string) (Status, error) {
	st := Status(v)
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return st, nil
}
