package db

import (
	"errors"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
)

// AggregateQuery is an ordered, keyset-seeked, bounded read over an index.
// Filters use index field names. Prefix conditions are applied as
// post-load string filters, everything else as a tag pre-filter.
type AggregateQuery struct {
	IndexName string
	Filters   filter.Expression
	// Sort is the primary order. Ties always break by IDField ascending.
	Sort    SortField
	IDField string
	// After resumes strictly after this (sort value, id) position.
	After *Seek
	// Load lists the fields returned per row.
	Load  []string
	Limit int
}

// SortField is an index field with its direction and value type.
type SortField struct {
	Name       string
	Descending bool
	Numeric    bool
}

// Seek is a keyset position in index representation.
type Seek struct {
	Value string
	ID    string
}

// Validate checks that the query is executable.
func (q *AggregateQuery) Validate() error {
	if q.IndexName == "" {
		return errors.New("index name is required")
	}
	if q.Sort.Name == "" || q.IDField == "" {
		return errors.New("sort and id fields are required")
	}
	if q.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

// IndexInfo is the subset of FT.INFO used for readiness reporting.
type IndexInfo struct {
	Name           string
	NumDocs        int
	Indexing       bool
	PercentIndexed float64
}

// Ready reports whether the index has finished its initial scan.
func (i *IndexInfo) Ready() bool {
	return !i.Indexing && i.PercentIndexed >= 1
}
