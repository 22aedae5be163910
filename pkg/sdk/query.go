package showroomdex

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// QueryBuilder is a fluent builder over the discovery query parameters.
// Each call overwrites the previous value of its parameter.
type QueryBuilder struct {
	client *Client
	params url.Values
	caller *Caller
}

func (b *QueryBuilder) set(key, value string) *QueryBuilder {
	b.params[key] = []string{value}
	return b
}

// As runs the query on behalf of caller. Default: guest.
func (b *QueryBuilder) As(caller *Caller) *QueryBuilder {
	b.caller = caller
	return b
}

// City filters by exact city, normalized.
func (b *QueryBuilder) City(city string) *QueryBuilder { return b.set("city", city) }

// Text sets the free-text prefix, matched against names.
func (b *QueryBuilder) Text(q string) *QueryBuilder { return b.set("q", q) }

// CityText sets the free-text prefix, matched against cities.
func (b *QueryBuilder) CityText(q string) *QueryBuilder {
	b.set("q", q)
	return b.set("qMode", "city")
}

// Brand filters by brand membership.
func (b *QueryBuilder) Brand(brand string) *QueryBuilder { return b.set("brand", brand) }

// Type filters by assortment type (unique or multibrand).
func (b *QueryBuilder) Type(t string) *QueryBuilder { return b.set("type", t) }

// CategoryGroups filters by any of the category groups.
func (b *QueryBuilder) CategoryGroups(groups ...string) *QueryBuilder {
	return b.set("categoryGroup", strings.Join(groups, ","))
}

// Categories filters by any of the categories.
func (b *QueryBuilder) Categories(categories ...string) *QueryBuilder {
	return b.set("categories", strings.Join(categories, ","))
}

// Subcategories filters by any of the subcategories.
func (b *QueryBuilder) Subcategories(subs ...string) *QueryBuilder {
	return b.set("subcategories", strings.Join(subs, ","))
}

// Country filters by exact country.
func (b *QueryBuilder) Country(country string) *QueryBuilder { return b.set("country", country) }

// Status requests a moderation status. Interpreted per caller role.
func (b *QueryBuilder) Status(status string) *QueryBuilder { return b.set("status", status) }

// GeohashPrefixes scans the given geohash buckets.
func (b *QueryBuilder) GeohashPrefixes(prefixes ...string) *QueryBuilder {
	return b.set("geohashPrefixes", strings.Join(prefixes, ","))
}

// Near scans the buckets around a point.
func (b *QueryBuilder) Near(lat, lng float64) *QueryBuilder {
	b.set("nearLat", strconv.FormatFloat(lat, 'f', -1, 64))
	return b.set("nearLng", strconv.FormatFloat(lng, 'f', -1, 64))
}

// Km sets the radius for Near.
func (b *QueryBuilder) Km(radius float64) *QueryBuilder {
	return b.set("nearRadiusKm", strconv.FormatFloat(radius, 'f', -1, 64))
}

// Ascending flips the default updatedAt order.
func (b *QueryBuilder) Ascending() *QueryBuilder { return b.set("order", "asc") }

// Markers requests the marker projection.
func (b *QueryBuilder) Markers() *QueryBuilder { return b.set("fields", "marker") }

// Limit sets the page size or suggestion limit.
func (b *QueryBuilder) Limit(n int) *QueryBuilder { return b.set("limit", strconv.Itoa(n)) }

// After continues from a previous page's NextCursor.
func (b *QueryBuilder) After(cursor string) *QueryBuilder {
	if cursor == "" {
		delete(b.params, "cursor")
		return b
	}
	return b.set("cursor", cursor)
}

// List returns one page.
func (b *QueryBuilder) List(ctx context.Context) (*Page, error) {
	return b.client.List(ctx, b.params, b.caller)
}

// Count counts matching showrooms. Limit, After, Ascending and Markers must not be set.
func (b *QueryBuilder) Count(ctx context.Context) (Count, error) {
	return b.client.Count(ctx, b.params, b.caller)
}

// Suggest returns autocomplete entries for Text or CityText.
func (b *QueryBuilder) Suggest(ctx context.Context) ([]Suggestion, error) {
	return b.client.Suggest(ctx, b.params, b.caller)
}
