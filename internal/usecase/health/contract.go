package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the search index exists and is built.
type IndexChecker interface {
	CheckIndex(ctx context.Context) error
}
