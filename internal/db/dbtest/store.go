// Package dbtest provides an in-process db.Store that evaluates FT
// aggregates over stored hashes, for tests that exercise the remote
// backend without a server.
package dbtest

import (
	"cmp"
	"context"
	"errors"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps hashes and index definitions in memory.
type Store struct {
	mu       sync.RWMutex
	hashes   map[string]map[string]string
	indexes  map[string]*db.IndexDefinition
	building map[string]bool
	err      error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		hashes:   make(map[string]map[string]string),
		indexes:  make(map[string]*db.IndexDefinition),
		building: make(map[string]bool),
	}
}

// FailWith makes every subsequent call return err. Nil restores normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetBuilding marks an index as still indexing.
func (s *Store) SetBuilding(name string, building bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.building[name] = building
}

// Ping checks connectivity.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately unless a failure is injected.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// HSetMulti stores multiple hashes.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return &db.Error{Op: db.OpHSet, Err: s.err}
	}
	for _, item := range items {
		h, ok := s.hashes[item.Key]
		if !ok {
			h = make(map[string]string, len(item.Fields))
			s.hashes[item.Key] = h
		}
		for k, v := range item.Fields {
			h[k] = v
		}
	}
	return nil
}

// HGetAll returns a copy of a hash, empty when absent.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: s.err}
	}
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return &db.Error{Op: db.OpDel, Err: s.err}
	}
	delete(s.hashes, key)
	return nil
}

// Scan returns keys matching a glob pattern in sorted order.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: s.err}
	}
	var keys []string
	for k := range s.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: s.err}
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = def
	return nil
}

// DropIndex removes an index definition, keeping the hashes.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: s.err}
	}
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexInfo reports document count and building state.
func (s *Store) IndexInfo(_ context.Context, name string) (*db.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &db.Error{Op: db.OpIndexInfo, Err: s.err}
	}
	def, ok := s.indexes[name]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	info := &db.IndexInfo{Name: name, NumDocs: len(s.indexedKeys(def)), PercentIndexed: 1}
	if s.building[name] {
		info.Indexing = true
		info.PercentIndexed = 0
	}
	return info, nil
}

// Aggregate evaluates the query over every hash covered by the index.
func (s *Store) Aggregate(_ context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: s.err}
	}
	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	rows := s.matching(def, q)
	slices.SortStableFunc(rows, func(a, b map[string]string) int {
		c := compareField(a[q.Sort.Name], b[q.Sort.Name], q.Sort.Numeric)
		if q.Sort.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a[q.IDField], b[q.IDField])
	})
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]map[string]string, len(rows))
	for i, h := range rows {
		out[i] = project(h, q)
	}
	return out, nil
}

// AggregateCount counts hashes matching the query filters.
func (s *Store) AggregateCount(_ context.Context, q *db.AggregateQuery) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, &db.Error{Op: db.OpAggregate, Err: s.err}
	}
	def, ok := s.indexes[q.IndexName]
	if !ok {
		return 0, db.ErrIndexNotFound
	}
	return len(s.matching(def, &db.AggregateQuery{Filters: q.Filters})), nil
}

func (s *Store) indexedKeys(def *db.IndexDefinition) []string {
	var keys []string
	for k := range s.hashes {
		for _, p := range def.Prefixes {
			if strings.HasPrefix(k, p) {
				keys = append(keys, k)
				break
			}
		}
	}
	return keys
}

func (s *Store) matching(def *db.IndexDefinition, q *db.AggregateQuery) []map[string]string {
	var out []map[string]string
	for _, key := range s.indexedKeys(def) {
		h := s.hashes[key]
		if !q.Filters.Eval(func(field string) []string { return tagValues(def, h, field) }) {
			continue
		}
		if q.After != nil && !afterSeek(h, q) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// tagValues splits a hash field the way the index tokenizes it.
func tagValues(def *db.IndexDefinition, h map[string]string, field string) []string {
	raw, ok := h[field]
	if !ok || raw == "" {
		return nil
	}
	f, ok := def.Field(field)
	if !ok || f.Type != db.IndexFieldTag {
		return []string{raw}
	}
	sep := f.TagSeparator
	if sep == "" {
		sep = ","
	}
	var out []string
	for _, v := range strings.Split(raw, sep) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func afterSeek(h map[string]string, q *db.AggregateQuery) bool {
	c := compareField(h[q.Sort.Name], q.After.Value, q.Sort.Numeric)
	if q.Sort.Descending {
		c = -c
	}
	if c != 0 {
		return c > 0
	}
	return h[q.IDField] > q.After.ID
}

func compareField(a, b string, numeric bool) int {
	if numeric {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			return cmp.Compare(fa, fb)
		}
	}
	return strings.Compare(a, b)
}

func project(h map[string]string, q *db.AggregateQuery) map[string]string {
	out := make(map[string]string, len(q.Load)+2)
	for _, f := range append([]string{q.IDField, q.Sort.Name}, q.Load...) {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ErrInjected is a ready-made failure for FailWith.
var ErrInjected = errors.New("dbtest: injected failure")
