package showroom

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/db"
	domshow "github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn           func(ctx context.Context) error
	hsetMultiFn      func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn        func(ctx context.Context, key string) (map[string]string, error)
	delFn            func(ctx context.Context, key string) error
	scanFn           func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn      func(ctx context.Context, name string) error
	indexInfoFn      func(ctx context.Context, name string) (*db.IndexInfo, error)
	aggregateFn      func(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error)
	aggregateCountFn func(ctx context.Context, q *db.AggregateQuery) (int, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return &db.IndexInfo{Name: name, PercentIndexed: 1}, nil
}

func (m *mockStore) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) AggregateCount(ctx context.Context, q *db.AggregateQuery) (int, error) {
	if m.aggregateCountFn != nil {
		return m.aggregateCountFn(ctx, q)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "test:"), ms
}

func testShowroom(id string) domshow.Showroom {
	s := domshow.Showroom{
		ID:       id,
		OwnerUID: "owner-1",
		Status:   domshow.StatusApproved,
		Name:     "Zara Home",
		Type:     domshow.TypeMultibrand,
		Brands:   []string{"H&M", "Comme des Garçons"},
		Country:  "France",
		Geo: domshow.Geo{
			City:   "Saint-Étienne",
			Coords: &domshow.Coords{Lat: 57.64911, Lng: 10.40744},
		},
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	s.Derive()
	return s
}
