package showroom

import (
	"github.com/kailas-cloud/showroomdex/internal/db"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
)

// Collection is the logical collection name reported on index errors.
const Collection = "showrooms"

// Hash field names.
const (
	fieldID               = "id"
	fieldOwnerUID         = "ownerUid"
	fieldStatus           = "status"
	fieldType             = "type"
	fieldCategory         = "category"
	fieldCategoryGroup    = "categoryGroup"
	fieldSubcategories    = "subcategories"
	fieldBrandKeys        = "brandKeys"
	fieldBrandsNormalized = "brandsNormalized"
	fieldCountry          = "country"
	fieldCityNormalized   = "cityNormalized"
	fieldNameNormalized   = "nameNormalized"
	fieldGeohash          = "geohash"
	fieldUpdatedAt        = "updatedAt"
	fieldDoc              = "doc"
)

// Tag separators for multi-valued fields.
const (
	listSeparator  = ","
	brandSeparator = "|"
)

// fieldByPath maps logical record paths to hash fields.
var fieldByPath = map[string]string{
	"id":                  fieldID,
	"ownerUid":            fieldOwnerUID,
	"status":              fieldStatus,
	"type":                fieldType,
	"category":            fieldCategory,
	"categoryGroup":       fieldCategoryGroup,
	"subcategories":       fieldSubcategories,
	"brandsMap":           fieldBrandKeys,
	"brandsNormalized":    fieldBrandsNormalized,
	"country":             fieldCountry,
	"geo.cityNormalized":  fieldCityNormalized,
	order.FieldName:       fieldNameNormalized,
	order.FieldGeohash:    fieldGeohash,
	order.FieldUpdatedAt:  fieldUpdatedAt,
}

// hashField translates a logical path. Unknown paths pass through unchanged.
func hashField(path string) string {
	if f, ok := fieldByPath[path]; ok {
		return f
	}
	return path
}

// Keys derives the hash key space and index name from a key prefix.
type Keys struct {
	prefix string
}

// NewKeys creates the key layout under prefix (e.g. "showroomdex:").
func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

// Record returns the hash key of one showroom.
func (k Keys) Record(id string) string { return k.RecordPrefix() + id }

// RecordPrefix is the common prefix of every showroom hash.
func (k Keys) RecordPrefix() string { return k.prefix + "showroom:" }

// Index returns the FT index name.
func (k Keys) Index() string { return k.prefix + Collection + ":idx" }

// buildIndex returns the showroom FT index. Every tag is case-sensitive:
// values are normalized before write, and country spellings are matched
// exactly by the count correction.
func buildIndex(keys Keys) *db.IndexDefinition {
	return db.NewIndex(keys.Index()).
		Prefix(keys.RecordPrefix()).
		SortableTag(fieldID).
		TagWithOpts(fieldOwnerUID, "", true).
		TagWithOpts(fieldStatus, "", true).
		TagWithOpts(fieldType, "", true).
		TagWithOpts(fieldCategory, "", true).
		TagWithOpts(fieldCategoryGroup, "", true).
		TagWithOpts(fieldSubcategories, listSeparator, true).
		TagWithOpts(fieldBrandKeys, listSeparator, true).
		TagWithOpts(fieldBrandsNormalized, brandSeparator, true).
		TagWithOpts(fieldCountry, "", true).
		SortableTag(fieldCityNormalized).
		SortableTag(fieldNameNormalized).
		SortableTag(fieldGeohash).
		SortableNumeric(fieldUpdatedAt).
		MustBuild()
}
