package mode

import "github.com/kailas-cloud/showroomdex/internal/domain/search/order"

// Mode is the execution strategy implied by the active filters.
type Mode string

// Execution modes. At most one of name-prefix and geohash filtering is ever active.
const (
	// Default orders by updatedAt with plain equality filters.
	Default Mode = "default"
	// Name is a name-prefix search ordered by nameNormalized.
	Name Mode = "name"
	// Geo scans one or more geohash prefix buckets ordered by geohash.
	Geo Mode = "geo"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Default || m == Name || m == Geo
}

// OrderKey returns the ordering the mode implies. dir only applies to Default.
func (m Mode) OrderKey(dir order.Direction) order.Key {
	switch m {
	case Name:
		return order.ByName
	case Geo:
		return order.ByGeohash
	default:
		if dir == "" {
			dir = order.Desc
		}
		return order.Key{Field: order.FieldUpdatedAt, Direction: dir}
	}
}
