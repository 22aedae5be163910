package request

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/geo"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/cursor"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/mode"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Limits bounds request parameters.
type Limits struct {
	DefaultPageSize     int
	MaxPageSize         int
	DefaultSuggestLimit int
	MaxSuggestLimit     int
	MaxGeohashPrefixes  int
	MaxListValues       int
	DefaultNearRadiusKm float64
	MaxNearRadiusKm     float64
}

// DefaultLimits returns the stock parameter bounds.
func DefaultLimits() Limits {
	return Limits{
		DefaultPageSize:     20,
		MaxPageSize:         100,
		DefaultSuggestLimit: 10,
		MaxSuggestLimit:     20,
		MaxGeohashPrefixes:  8,
		MaxListValues:       10,
		DefaultNearRadiusKm: 5,
		MaxNearRadiusKm:     50,
	}
}

// scalarParams may appear at most once.
var scalarParams = []string{
	"limit", "fields", "cursor", "city", "q", "qMode", "brand", "type",
	"nearLat", "nearLng", "nearRadiusKm", "status", "country", "order",
}

// rejectedParams are paging and projection params an operation does not accept.
var rejectedParams = map[Op][]string{
	OpCount:   {"limit", "cursor", "fields", "order"},
	OpSuggest: {"cursor", "fields", "order"},
}

// rawParams is the static shape of the scalar parameters.
type rawParams struct {
	Limit        string `param:"limit" validate:"omitempty,number"`
	Fields       string `param:"fields" validate:"omitempty,oneof=card marker"`
	Cursor       string `param:"cursor" validate:"omitempty,max=1024"`
	QMode        string `param:"qMode" validate:"omitempty,oneof=name city"`
	Type         string `param:"type" validate:"omitempty,oneof=unique multibrand"`
	Status       string `param:"status" validate:"omitempty,oneof=draft pending approved rejected deleted"`
	Order        string `param:"order" validate:"omitempty,oneof=asc desc"`
	NearLat      string `param:"nearLat" validate:"omitempty,latitude"`
	NearLng      string `param:"nearLng" validate:"omitempty,longitude"`
	NearRadiusKm string `param:"nearRadiusKm" validate:"omitempty,numeric"`
}

// Parser turns raw query parameters into a Request.
type Parser struct {
	limits   Limits
	validate *validator.Validate
}

// NewParser creates a Parser. Zero limits fall back to DefaultLimits.
func NewParser(limits Limits) *Parser {
	def := DefaultLimits()
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = def.DefaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = def.MaxPageSize
	}
	if limits.DefaultSuggestLimit <= 0 {
		limits.DefaultSuggestLimit = def.DefaultSuggestLimit
	}
	if limits.MaxSuggestLimit <= 0 {
		limits.MaxSuggestLimit = def.MaxSuggestLimit
	}
	if limits.MaxGeohashPrefixes <= 0 {
		limits.MaxGeohashPrefixes = def.MaxGeohashPrefixes
	}
	if limits.MaxListValues <= 0 {
		limits.MaxListValues = def.MaxListValues
	}
	if limits.DefaultNearRadiusKm <= 0 {
		limits.DefaultNearRadiusKm = def.DefaultNearRadiusKm
	}
	if limits.MaxNearRadiusKm <= 0 {
		limits.MaxNearRadiusKm = def.MaxNearRadiusKm
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("param")
	})
	return &Parser{limits: limits, validate: v}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrQueryInvalid, fmt.Sprintf(format, args...))
}

// Parse validates values for op. Every violation is reported as
// domain.ErrQueryInvalid, cursor problems as domain.ErrCursorInvalid.
func (p *Parser) Parse(op Op, values url.Values) (*Request, error) {
	if err := p.checkShape(op, values); err != nil {
		return nil, err
	}

	r := &Request{op: op, fields: FieldsCard}

	if err := p.parseLimit(r, values); err != nil {
		return nil, err
	}
	if v := values.Get("fields"); v != "" {
		r.fields = Fields(v)
	}
	if err := p.parseText(r, values); err != nil {
		return nil, err
	}
	if err := p.parseScalars(r, values); err != nil {
		return nil, err
	}
	if err := p.parseCategories(r, values); err != nil {
		return nil, err
	}
	if err := p.parseGeo(r, values); err != nil {
		return nil, err
	}
	if err := p.parseOrder(r, values); err != nil {
		return nil, err
	}
	if err := p.parseCursor(r, values); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Parser) checkShape(op Op, values url.Values) error {
	switch op {
	case OpList, OpCount, OpSuggest:
	default:
		return invalid("unknown operation %q", op)
	}
	for _, k := range scalarParams {
		if len(values[k]) > 1 {
			return invalid("parameter %q given more than once", k)
		}
	}
	for _, k := range rejectedParams[op] {
		if values.Has(k) {
			return invalid("parameter %q is not accepted by %s", k, op)
		}
	}

	raw := rawParams{
		Limit:        values.Get("limit"),
		Fields:       values.Get("fields"),
		Cursor:       values.Get("cursor"),
		QMode:        values.Get("qMode"),
		Type:         values.Get("type"),
		Status:       values.Get("status"),
		Order:        values.Get("order"),
		NearLat:      strings.TrimSpace(values.Get("nearLat")),
		NearLng:      strings.TrimSpace(values.Get("nearLng")),
		NearRadiusKm: strings.TrimSpace(values.Get("nearRadiusKm")),
	}
	if err := p.validate.Struct(raw); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return invalid("parameter %q fails %q", ve[0].Field(), ve[0].Tag())
		}
		return invalid("%v", err)
	}
	return nil
}

func (p *Parser) parseLimit(r *Request, values url.Values) error {
	def, maxLimit := p.limits.DefaultPageSize, p.limits.MaxPageSize
	switch r.op {
	case OpCount:
		return nil
	case OpSuggest:
		def, maxLimit = p.limits.DefaultSuggestLimit, p.limits.MaxSuggestLimit
	}
	r.limit = def

	v := values.Get("limit")
	if v == "" {
		if values.Has("limit") {
			return invalid("limit is empty")
		}
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		return invalid("limit must be between 1 and %d", maxLimit)
	}
	r.limit = n
	return nil
}

func (p *Parser) parseText(r *Request, values url.Values) error {
	hasCity, hasQ := values.Has("city"), values.Has("q")
	if values.Has("qMode") && !hasQ {
		return invalid("qMode requires q")
	}
	if hasCity && hasQ {
		return invalid("city and q are mutually exclusive")
	}

	if hasCity {
		n := showroom.NormalizeCity(values.Get("city"))
		if n == "" {
			return invalid("city is empty")
		}
		r.cityNormalized = n
	}

	if hasQ {
		raw := strings.TrimSpace(values.Get("q"))
		n := showroom.NormalizeText(raw)
		if n == "" {
			if r.op == OpSuggest {
				// nothing to complete
				return nil
			}
			return invalid("q is empty")
		}
		r.rawText = raw
		r.text = n
		r.textMode = TextName
		if values.Get("qMode") == string(TextCity) {
			r.textMode = TextCity
		}
	}
	return nil
}

func (p *Parser) parseScalars(r *Request, values url.Values) error {
	if values.Has("brand") {
		b := values.Get("brand")
		r.brandKey = showroom.BrandKey(b)
		r.brandNormalized = showroom.NormalizeText(b)
		if r.brandKey == "" || r.brandNormalized == "" {
			return invalid("brand is empty")
		}
	}
	if v := values.Get("type"); v != "" {
		r.showroomType = showroom.Type(v)
	}
	if v := values.Get("status"); v != "" {
		r.status = showroom.Status(v)
	}
	if values.Has("country") {
		r.country = strings.TrimSpace(values.Get("country"))
		if r.country == "" {
			return invalid("country is empty")
		}
	}
	return nil
}

// listParam merges repeated and comma-joined values, trimmed and deduplicated.
func (p *Parser) listParam(values url.Values, key string) ([]string, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, v := range raw {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item == "" || slices.Contains(out, item) {
				continue
			}
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, invalid("%s is empty", key)
	}
	if len(out) > p.limits.MaxListValues {
		return nil, invalid("%s accepts at most %d values", key, p.limits.MaxListValues)
	}
	return out, nil
}

func (p *Parser) parseCategories(r *Request, values url.Values) error {
	var err error
	if r.categories, err = p.listParam(values, "categories"); err != nil {
		return err
	}
	if r.categoryGroups, err = p.listParam(values, "categoryGroup"); err != nil {
		return err
	}
	if r.subcategories, err = p.listParam(values, "subcategories"); err != nil {
		return err
	}

	if len(r.categories) > 0 && (len(r.categoryGroups) > 0 || len(r.subcategories) > 0) {
		return invalid("categories cannot be combined with categoryGroup or subcategories")
	}
	if len(r.subcategories) > 0 {
		switch {
		case len(r.categoryGroups) == 0:
			r.categoryGroups = []string{showroom.SubcategoryGroup}
		case !slices.Contains(r.categoryGroups, showroom.SubcategoryGroup):
			return invalid("subcategories require categoryGroup %q", showroom.SubcategoryGroup)
		}
	}
	return nil
}

func (p *Parser) parseGeo(r *Request, values url.Values) error {
	var prefixes []string
	for _, key := range []string{"geohashPrefix", "geohashPrefixes"} {
		list, err := p.listParam(values, key)
		if err != nil {
			return err
		}
		for _, gh := range list {
			gh = strings.ToLower(gh)
			if !geo.ValidPrefix(gh) {
				return invalid("invalid geohash prefix %q", gh)
			}
			if !slices.Contains(prefixes, gh) {
				prefixes = append(prefixes, gh)
			}
		}
	}
	if len(prefixes) > p.limits.MaxGeohashPrefixes {
		return invalid("at most %d geohash prefixes allowed", p.limits.MaxGeohashPrefixes)
	}
	prefixes = collapsePrefixes(prefixes)

	hasLat, hasLng, hasRadius := values.Has("nearLat"), values.Has("nearLng"), values.Has("nearRadiusKm")
	if hasLat != hasLng {
		return invalid("nearLat and nearLng must be given together")
	}
	if hasRadius && !hasLat {
		return invalid("nearRadiusKm requires nearLat and nearLng")
	}

	if hasLat {
		if len(prefixes) > 0 {
			return invalid("geohash prefixes and nearby search are mutually exclusive")
		}
		near, cells, err := p.parseNear(values)
		if err != nil {
			return err
		}
		r.near = near
		prefixes = cells
	}

	if len(prefixes) > 0 && r.textMode == TextName && r.op != OpSuggest {
		return invalid("name search cannot be combined with geo filters")
	}
	r.geohashPrefixes = prefixes
	return nil
}

// collapsePrefixes drops every prefix covered by a shorter one in the list,
// so that no record belongs to two buckets. Input order is kept.
func collapsePrefixes(prefixes []string) []string {
	out := prefixes[:0:0]
	for i, gh := range prefixes {
		covered := false
		for j, other := range prefixes {
			if i != j && len(other) < len(gh) && strings.HasPrefix(gh, other) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, gh)
		}
	}
	return out
}

func (p *Parser) parseNear(values url.Values) (*Near, []string, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(values.Get("nearLat")), 64)
	if err != nil {
		return nil, nil, invalid("nearLat is not a number")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(values.Get("nearLng")), 64)
	if err != nil {
		return nil, nil, invalid("nearLng is not a number")
	}
	radius := p.limits.DefaultNearRadiusKm
	if values.Has("nearRadiusKm") {
		radius, err = strconv.ParseFloat(strings.TrimSpace(values.Get("nearRadiusKm")), 64)
		if err != nil {
			return nil, nil, invalid("nearRadiusKm is not a number")
		}
	}
	if radius <= 0 || radius > p.limits.MaxNearRadiusKm {
		return nil, nil, invalid("nearRadiusKm must be in (0, %g]", p.limits.MaxNearRadiusKm)
	}

	precision := geo.PrecisionForRadius(radius)
	cells, err := geo.Grid(lat, lng, precision)
	if err != nil {
		return nil, nil, invalid("%v", err)
	}
	return &Near{Lat: lat, Lng: lng, RadiusKm: radius, Precision: precision}, cells, nil
}

func (p *Parser) parseOrder(r *Request, values url.Values) error {
	v := values.Get("order")
	if v == "" {
		return nil
	}
	if r.Mode() != mode.Default {
		return invalid("order only applies to the default listing order")
	}
	r.direction = order.Direction(v)
	return nil
}

func (p *Parser) parseCursor(r *Request, values url.Values) error {
	if !values.Has("cursor") {
		return nil
	}
	token := values.Get("cursor")
	if r.CursorDisabled() {
		return invalid("cursor cannot be used with multiple geohash prefixes")
	}
	pos, err := cursor.Parse(token, r.OrderKey())
	if err != nil {
		return err
	}
	r.after = &pos
	return nil
}
