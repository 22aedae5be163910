package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/showroomdex/internal/db"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
)

// Aggregate runs an ordered keyset read via FT.AGGREGATE.
//
//	FT.AGGREGATE idx <tag query> LOAD n @f... [FILTER <prefix && seek>]
//	  SORTBY 4 @sort DIR @id ASC MAX limit LIMIT 0 limit DIALECT 2
func (s *Store) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	dir := "ASC"
	if q.Sort.Descending {
		dir = "DESC"
	}
	limit := strconv.Itoa(q.Limit)

	args := []string{q.IndexName, buildQuery(q.Filters)}
	args = append(args, loadArgs(q)...)
	if expr := buildPostFilter(q); expr != "" {
		args = append(args, "FILTER", expr)
	}
	args = append(args,
		"SORTBY", "4", "@"+q.Sort.Name, dir, "@"+q.IDField, "ASC", "MAX", limit,
		"LIMIT", "0", limit,
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchErr(db.OpAggregate, err)
	}
	return parseAggregateRows(raw), nil
}

// AggregateCount counts matching documents. Without prefix conditions the
// tag query alone decides membership and FT.SEARCH LIMIT 0 0 is enough;
// otherwise the prefix filter runs inside FT.AGGREGATE with a COUNT reducer.
func (s *Store) AggregateCount(ctx context.Context, q *db.AggregateQuery) (int, error) {
	if q.IndexName == "" {
		return 0, fmt.Errorf("index name is required")
	}

	if len(q.Filters.Prefixes()) == 0 {
		return s.SearchCount(ctx, q.IndexName, buildQuery(q.Filters))
	}

	args := []string{q.IndexName, buildQuery(q.Filters)}
	args = append(args, loadArgs(&db.AggregateQuery{Filters: q.Filters})...)
	args = append(args,
		"FILTER", buildPostFilter(&db.AggregateQuery{Filters: q.Filters}),
		"GROUPBY", "0", "REDUCE", "COUNT", "0", "AS", "total",
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, searchErr(db.OpAggregate, err)
	}
	rows := parseAggregateRows(raw)
	if len(rows) == 0 {
		return 0, nil
	}
	total, err := strconv.ParseFloat(rows[0]["total"], 64)
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, searchErr(db.OpSearch, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func searchErr(op string, err error) error {
	if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: op, Err: err}
}

// --- Result parsing ---

// parseAggregateRows reads [total, [k, v, ...], [k, v, ...], ...].
func parseAggregateRows(raw []rueidis.RedisMessage) []map[string]string {
	if len(raw) < 2 {
		return nil
	}
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		fields, err := msg.ToArray()
		if err != nil {
			continue
		}
		rows = append(rows, parseFieldPairs(fields))
	}
	return rows
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

func loadArgs(q *db.AggregateQuery) []string {
	var fields []string
	add := func(name string) {
		if name != "" && !slices.Contains(fields, name) {
			fields = append(fields, name)
		}
	}
	for _, f := range q.Load {
		add(f)
	}
	add(q.IDField)
	add(q.Sort.Name)
	for _, c := range q.Filters.Prefixes() {
		add(c.Key())
	}
	if len(fields) == 0 {
		return nil
	}

	args := []string{"LOAD", strconv.Itoa(len(fields))}
	for _, f := range fields {
		args = append(args, "@"+f)
	}
	return args
}

// buildQuery translates the tag conditions of expr into an FT query string.
func buildQuery(expr filter.Expression) string {
	if q := buildFilter(expr); q != "" {
		return q
	}
	return "*"
}

// buildFilter translates filter.Expression into an FT pre-filter query string.
// Prefix conditions are skipped; buildPostFilter handles them.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string

	for _, cond := range expr.Must() {
		if c := buildCondition(cond); c != "" {
			parts = append(parts, c)
		}
	}

	if shouldParts := buildShouldGroup(expr.Should()); shouldParts != "" {
		parts = append(parts, shouldParts)
	}

	for _, cond := range expr.MustNot() {
		if c := buildCondition(cond); c != "" {
			parts = append(parts, "-"+c)
		}
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	switch {
	case cond.IsMatch():
		return buildTagFilter(cond.Key(), cond.Match())
	case cond.IsMatchAny():
		return buildTagFilter(cond.Key(), cond.Values()...)
	default:
		return ""
	}
}

func buildShouldGroup(conditions []filter.Condition) string {
	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		if c := buildCondition(cond); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func buildTagFilter(key string, values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

// buildPostFilter renders prefix conditions and the keyset seek as an
// FT.AGGREGATE FILTER expression.
func buildPostFilter(q *db.AggregateQuery) string {
	var parts []string
	for _, c := range q.Filters.Prefixes() {
		parts = append(parts, fmt.Sprintf("startswith(@%s, %s)", c.Key(), quote(c.Match())))
	}
	if q.After != nil {
		parts = append(parts, buildSeek(q))
	}
	return strings.Join(parts, " && ")
}

// buildSeek renders (sort, id) > (value, id) under the sort direction.
func buildSeek(q *db.AggregateQuery) string {
	op := ">"
	if q.Sort.Descending {
		op = "<"
	}
	value := quote(q.After.Value)
	if q.Sort.Numeric {
		value = q.After.Value
	}
	f := "@" + q.Sort.Name
	return fmt.Sprintf("((%s %s %s) || (%s == %s && @%s > %s))",
		f, op, value, f, value, q.IDField, quote(q.After.ID))
}

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
