package showroom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	domshow "github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// toHash flattens a derived showroom into indexed hash fields plus the JSON document.
func toHash(s *domshow.Showroom) (map[string]string, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal showroom %s: %w", s.ID, err)
	}
	return map[string]string{
		fieldID:               s.ID,
		fieldOwnerUID:         s.OwnerUID,
		fieldStatus:           string(s.Status),
		fieldType:             string(s.Type),
		fieldCategory:         s.Category,
		fieldCategoryGroup:    s.CategoryGroup,
		fieldSubcategories:    strings.Join(s.Subcategories, listSeparator),
		fieldBrandKeys:        strings.Join(s.BrandKeys(), listSeparator),
		fieldBrandsNormalized: strings.Join(s.BrandsNormalized, brandSeparator),
		fieldCountry:          s.Country,
		fieldCityNormalized:   s.Geo.CityNormalized,
		fieldNameNormalized:   s.NameNormalized,
		fieldGeohash:          s.Geo.Geohash,
		fieldUpdatedAt:        strconv.FormatInt(s.UpdatedAt.UnixMilli(), 10),
		fieldDoc:              string(doc),
	}, nil
}

// fromRow decodes the JSON document of an aggregate row or hash.
func fromRow(row map[string]string) (domshow.Showroom, error) {
	var s domshow.Showroom
	raw, ok := row[fieldDoc]
	if !ok {
		return s, fmt.Errorf("row %q has no %s field", row[fieldID], fieldDoc)
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("unmarshal showroom %q: %w", row[fieldID], err)
	}
	return s, nil
}

// seekValue renders a sort value the way the index stores it.
func seekValue(v order.Value) string {
	switch v.Kind() {
	case order.KindTime:
		return strconv.FormatInt(v.At().UnixMilli(), 10)
	case order.KindNumber:
		return strconv.FormatFloat(v.Num(), 'f', -1, 64)
	default:
		return v.Str()
	}
}
