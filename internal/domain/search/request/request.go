package request

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/mode"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Op is the discovery operation a request is parsed for.
type Op string

// Operations.
const (
	OpList    Op = "list"
	OpCount   Op = "count"
	OpSuggest Op = "suggest"
)

// Fields selects the listing projection.
type Fields string

// Projections.
const (
	FieldsCard   Fields = "card"
	FieldsMarker Fields = "marker"
)

// TextMode selects how the free-text q parameter is interpreted.
type TextMode string

// Text modes.
const (
	TextName TextMode = "name"
	TextCity TextMode = "city"
)

// Near is a resolved "nearby" request.
type Near struct {
	Lat       float64
	Lng       float64
	RadiusKm  float64
	Precision int
}

// Request is a validated, normalized discovery query. It is built once per
// call by Parser.Parse and never modified afterwards.
type Request struct {
	op     Op
	limit  int
	fields Fields
	after  *order.Position

	cityNormalized string
	text           string
	rawText        string
	textMode       TextMode

	brandKey        string
	brandNormalized string
	showroomType    showroom.Type
	categoryGroups  []string
	subcategories   []string
	categories      []string

	geohashPrefixes []string
	near            *Near

	status    showroom.Status
	country   string
	direction order.Direction
}

// Op returns the operation.
func (r *Request) Op() Op { return r.op }

// Limit returns the page or suggestion limit. Zero for counts.
func (r *Request) Limit() int { return r.limit }

// Fields returns the listing projection.
func (r *Request) Fields() Fields { return r.fields }

// After returns the resolved cursor position, or nil on a first page.
func (r *Request) After() *order.Position { return r.after }

// CityNormalized returns the exact city filter.
func (r *Request) CityNormalized() string { return r.cityNormalized }

// Text returns the normalized free-text prefix.
func (r *Request) Text() string { return r.text }

// RawText returns q as supplied, trimmed.
func (r *Request) RawText() string { return r.rawText }

// TextMode returns how Text is interpreted. Empty when q is absent.
func (r *Request) TextMode() TextMode { return r.textMode }

// BrandKey returns the dictionary-safe brand key.
func (r *Request) BrandKey() string { return r.brandKey }

// BrandNormalized returns the display-normalized brand.
func (r *Request) BrandNormalized() string { return r.brandNormalized }

// Type returns the assortment type filter.
func (r *Request) Type() showroom.Type { return r.showroomType }

// CategoryGroups returns the categoryGroup filter values.
func (r *Request) CategoryGroups() []string { return r.categoryGroups }

// Subcategories returns the subcategory filter values.
func (r *Request) Subcategories() []string { return r.subcategories }

// Categories returns the category filter values.
func (r *Request) Categories() []string { return r.categories }

// GeohashPrefixes returns the geohash buckets to scan.
func (r *Request) GeohashPrefixes() []string { return r.geohashPrefixes }

// Near returns the nearby request the prefixes were derived from, if any.
func (r *Request) Near() *Near { return r.near }

// Status returns the requested status, interpreted per caller role.
func (r *Request) Status() showroom.Status { return r.status }

// Country returns the exact country filter.
func (r *Request) Country() string { return r.country }

// CursorDisabled reports whether paging is impossible (more than one prefix).
func (r *Request) CursorDisabled() bool { return len(r.geohashPrefixes) > 1 }

// Mode returns the execution mode implied by the filters.
func (r *Request) Mode() mode.Mode {
	switch {
	case len(r.geohashPrefixes) > 0:
		return mode.Geo
	case r.textMode == TextName && r.text != "":
		return mode.Name
	default:
		return mode.Default
	}
}

// OrderKey returns the ordering implied by the filters.
func (r *Request) OrderKey() order.Key { return r.Mode().OrderKey(r.direction) }

// SampleKey is the ordering of the bounded suggestion sample, which never
// carries the text prefix.
func (r *Request) SampleKey() order.Key {
	if len(r.geohashPrefixes) > 0 {
		return order.ByGeohash
	}
	return mode.Default.OrderKey(r.direction)
}

// Conditions returns every must condition except the free-text prefix and geohash buckets.
// A condition that cannot be built fails the whole set rather than widening the filter.
func (r *Request) Conditions() ([]filter.Condition, error) {
	var out []filter.Condition
	var errs []error
	add := func(c filter.Condition, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		out = append(out, c)
	}
	if r.cityNormalized != "" {
		add(filter.NewMatch("geo.cityNormalized", r.cityNormalized))
	}
	if r.showroomType != "" {
		add(filter.NewMatch("type", string(r.showroomType)))
	}
	if len(r.categoryGroups) > 0 {
		add(filter.NewMatchAny("categoryGroup", r.categoryGroups...))
	}
	if len(r.subcategories) > 0 {
		add(filter.NewMatchAny("subcategories", r.subcategories...))
	}
	if len(r.categories) > 0 {
		add(filter.NewMatchAny("category", r.categories...))
	}
	if r.country != "" {
		add(filter.NewMatch("country", r.country))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("request conditions: %w", err)
	}
	return out, nil
}

// BrandConditions returns the brand membership alternatives: the presence-map
// key, or the normalized name for legacy records.
func (r *Request) BrandConditions() ([]filter.Condition, error) {
	if r.brandKey == "" {
		return nil, nil
	}
	byKey, err := filter.NewMatch("brandsMap", r.brandKey)
	if err != nil {
		return nil, fmt.Errorf("brand key: %w", err)
	}
	byName, err := filter.NewMatch("brandsNormalized", r.brandNormalized)
	if err != nil {
		return nil, fmt.Errorf("brand name: %w", err)
	}
	return []filter.Condition{byKey, byName}, nil
}

// TextCondition returns the free-text prefix condition; ok is false when q is absent.
func (r *Request) TextCondition() (c filter.Condition, ok bool, err error) {
	if r.text == "" {
		return filter.Condition{}, false, nil
	}
	key := order.FieldName
	if r.textMode == TextCity {
		key = "geo.cityNormalized"
	}
	c, err = filter.NewPrefix(key, r.text)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("text condition: %w", err)
	}
	return c, true, nil
}
