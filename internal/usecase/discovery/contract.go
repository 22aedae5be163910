package discovery

import (
	"context"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Source is a backend the engine reads showrooms from.
// Fetch must return a superset of the first sc.Limit records of sc in
// order; the engine re-applies sc.Window to whatever it returns.
type Source interface {
	Fetch(ctx context.Context, sc *scan.Scan) ([]showroom.Showroom, error)
	Count(ctx context.Context, expr filter.Expression) (int, error)
}
