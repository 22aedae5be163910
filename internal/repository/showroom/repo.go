// Package showroom is the remote discovery backend: showrooms stored as
// hashes under an FT index and read with ordered keyset aggregates.
package showroom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/showroomdex/internal/db"
	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	domshow "github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// store is the consumer interface for showroom storage (ISP).
//
//nolint:interfacebloat // repo needs hash writes, index lifecycle and aggregates
type store interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error)
	AggregateCount(ctx context.Context, q *db.AggregateQuery) (int, error)
}

// IndexStatus describes the showroom index as seen by operators.
type IndexStatus struct {
	Name           string  `json:"name"`
	Exists         bool    `json:"exists"`
	Ready          bool    `json:"ready"`
	NumDocs        int     `json:"numDocs"`
	PercentIndexed float64 `json:"percentIndexed"`
}

// Repo implements the discovery Source over a db store.
type Repo struct {
	store store
	keys  Keys
}

// New creates a showroom repository under the given key prefix.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keys: NewKeys(keyPrefix)}
}

// Keys returns the key layout.
func (r *Repo) Keys() Keys { return r.keys }

// Ping checks store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Fetch runs one ordered, bounded read.
func (r *Repo) Fetch(ctx context.Context, sc *scan.Scan) ([]domshow.Showroom, error) {
	q := r.aggregateQuery(sc)
	rows, err := r.store.Aggregate(ctx, q)
	if err != nil {
		return nil, r.classify("fetch", err)
	}

	out := make([]domshow.Showroom, 0, len(rows))
	for _, row := range rows {
		s, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Count returns the number of records matching expr.
func (r *Repo) Count(ctx context.Context, expr filter.Expression) (int, error) {
	n, err := r.store.AggregateCount(ctx, &db.AggregateQuery{
		IndexName: r.keys.Index(),
		Filters:   expr.Rekey(hashField),
	})
	if err != nil {
		return 0, r.classify("count", err)
	}
	return n, nil
}

func (r *Repo) aggregateQuery(sc *scan.Scan) *db.AggregateQuery {
	q := &db.AggregateQuery{
		IndexName: r.keys.Index(),
		Filters:   sc.Filter.Rekey(hashField),
		Sort: db.SortField{
			Name:       hashField(sc.Order.Field),
			Descending: sc.Order.Descending(),
			Numeric:    sc.Order.Kind() != order.KindString,
		},
		IDField: fieldID,
		Load:    []string{fieldDoc},
		Limit:   sc.Limit,
	}
	if sc.After != nil {
		q.After = &db.Seek{Value: seekValue(sc.After.Value), ID: sc.After.ID}
	}
	return q
}

// classify maps a missing index to the domain readiness error.
func (r *Repo) classify(op string, err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return domain.NewIndexNotReady(Collection)
	}
	return fmt.Errorf("%s showrooms: %w", op, err)
}

// Put derives and stores showrooms in one pipelined round-trip.
func (r *Repo) Put(ctx context.Context, items []domshow.Showroom) error {
	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		s := items[i]
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: showroom id is required", domain.ErrQueryInvalid)
		}
		s.Derive()
		fields, err := toHash(&s)
		if err != nil {
			return err
		}
		batch = append(batch, db.HashSetItem{Key: r.keys.Record(s.ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("put showrooms: %w", err)
	}
	return nil
}

// Get loads one showroom by id.
func (r *Repo) Get(ctx context.Context, id string) (domshow.Showroom, error) {
	m, err := r.store.HGetAll(ctx, r.keys.Record(id))
	if err != nil {
		return domshow.Showroom{}, fmt.Errorf("get showroom %s: %w", id, err)
	}
	if len(m) == 0 {
		return domshow.Showroom{}, db.ErrKeyNotFound
	}
	return fromRow(m)
}

// Delete removes one showroom hash.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.keys.Record(id)); err != nil {
		return fmt.Errorf("delete showroom %s: %w", id, err)
	}
	return nil
}

// IDs lists every stored showroom id.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.keys.RecordPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan showrooms: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, r.keys.RecordPrefix())
	}
	return ids, nil
}

// EnsureIndex creates the showroom index. An existing index is left as is.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	err = r.store.CreateIndex(ctx, buildIndex(r.keys))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexExists):
		return false, nil
	default:
		return false, fmt.Errorf("create index: %w", err)
	}
}

// DropIndex removes the showroom index, keeping the hashes.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.keys.Index()); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.NewIndexNotReady(Collection)
		}
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// IndexStatus reports whether the index exists and has finished building.
func (r *Repo) IndexStatus(ctx context.Context) (IndexStatus, error) {
	st := IndexStatus{Name: r.keys.Index()}
	info, err := r.store.IndexInfo(ctx, r.keys.Index())
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return st, nil
		}
		return st, fmt.Errorf("index info: %w", err)
	}
	st.Exists = true
	st.Ready = info.Ready()
	st.NumDocs = info.NumDocs
	st.PercentIndexed = info.PercentIndexed
	return st, nil
}

// CheckIndex returns an index-not-ready error unless the index exists and is built.
func (r *Repo) CheckIndex(ctx context.Context) error {
	st, err := r.IndexStatus(ctx)
	if err != nil {
		return err
	}
	if !st.Exists || !st.Ready {
		return domain.NewIndexNotReady(Collection)
	}
	return nil
}
