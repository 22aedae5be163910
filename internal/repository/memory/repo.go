// Package memory is the in-process discovery backend used for local runs
// and as the reference the remote backend is tested against.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Repo holds an immutable, derived snapshot of showrooms.
type Repo struct {
	items []showroom.Showroom
}

// New creates a repository over a derived copy of items.
func New(items []showroom.Showroom) *Repo {
	out := make([]showroom.Showroom, len(items))
	copy(out, items)
	for i := range out {
		out[i].Derive()
	}
	return &Repo{items: out}
}

// Load reads showrooms from a JSON or YAML fixture file.
func Load(path string) (*Repo, error) {
	items, err := ReadFixtures(path)
	if err != nil {
		return nil, err
	}
	return New(items), nil
}

// ReadFixtures decodes a JSON or YAML list of showrooms without deriving them.
func ReadFixtures(path string) ([]showroom.Showroom, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var items []showroom.Showroom
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&items)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &items)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return items, nil
}

// Ping always succeeds.
func (r *Repo) Ping(_ context.Context) error { return nil }

// Fetch runs one ordered, bounded read over the snapshot.
func (r *Repo) Fetch(ctx context.Context, sc *scan.Scan) ([]showroom.Showroom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sc.Window(r.items), nil
}

// Count returns the number of records matching expr.
func (r *Repo) Count(ctx context.Context, expr filter.Expression) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sc := scan.Scan{Filter: expr}
	n := 0
	for i := range r.items {
		if sc.Matches(&r.items[i]) {
			n++
		}
	}
	return n, nil
}

// All returns the snapshot.
func (r *Repo) All() []showroom.Showroom {
	return r.items
}
