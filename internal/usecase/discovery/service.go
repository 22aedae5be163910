// Package discovery runs listing, counting and suggestion reads over a Source.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/cursor"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
	"github.com/kailas-cloud/showroomdex/internal/logger"
	"github.com/kailas-cloud/showroomdex/internal/metrics"
)

const (
	// DefaultSampleSize bounds the record sample suggestions are derived from.
	DefaultSampleSize = 200
	// countConcurrency caps in-flight count queries of one request.
	countConcurrency = 8
)

// Service executes discovery reads.
type Service struct {
	source     Source
	jur        *visibility.Jurisdiction
	sampleSize int
}

// Option configures a Service.
type Option func(*Service)

// WithSampleSize overrides the suggestion sample size.
func WithSampleSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleSize = n
		}
	}
}

// New creates a discovery service. A nil jurisdiction blocks the default country set.
func New(source Source, jur *visibility.Jurisdiction, opts ...Option) *Service {
	if jur == nil {
		jur = visibility.NewJurisdiction(visibility.DefaultBlocked())
	}
	s := &Service{source: source, jur: jur, sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of showrooms.
func (s *Service) List(ctx context.Context, req *request.Request, caller *visibility.Caller) (*result.Page, error) {
	vis := visibility.Resolve(caller, req.Status())
	metrics.DiscoveryQueriesTotal.WithLabelValues(string(request.OpList), string(req.Mode())).Inc()

	if vis.Empty {
		return project(req, emptyPage(req), nil), nil
	}

	expr, err := baseExpression(req, vis, true)
	if err != nil {
		return nil, err
	}
	key := req.OrderKey()
	prefixes := req.GeohashPrefixes()
	log := logger.FromContext(ctx)

	if len(prefixes) > 1 {
		metrics.DiscoveryFanoutPrefixes.WithLabelValues(string(request.OpList)).Observe(float64(len(prefixes)))
		base := scan.Scan{Filter: expr, Order: key}
		keep := func(items []showroom.Showroom) []showroom.Showroom {
			return s.admit(request.OpList, vis, items)
		}
		parts, err := s.fanout(ctx, &base, prefixes, req.Limit(), keep)
		if err != nil {
			return nil, s.fail(ctx, request.OpList, err)
		}
		merged := scan.Merge(key, req.Limit(), parts...)
		log.Debug("list merged",
			zap.Strings("prefixes", prefixes),
			zap.Int("merged", len(merged)),
		)
		page := &result.Page{Paging: result.PagingDisabled, Reason: result.ReasonMultipleGeoBuckets}
		return project(req, page, merged), nil
	}

	if len(prefixes) == 1 {
		cond, err := filter.NewPrefix(order.FieldGeohash, prefixes[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
		}
		expr = expr.And(cond)
	}

	limit := req.Limit()
	sc := &scan.Scan{Filter: expr, Order: key, After: req.After(), Limit: limit + 1}
	items, err := s.source.Fetch(ctx, sc)
	if err != nil {
		return nil, s.fail(ctx, request.OpList, err)
	}
	items = sc.Window(items)

	page := &result.Page{Paging: result.PagingEnd}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		page.HasMore = true
		page.Paging = result.PagingEnabled
		page.NextCursor = cursor.Encode(key, last.Position(key))
	}
	log.Debug("list window",
		zap.String("mode", string(req.Mode())),
		zap.String("order", key.String()),
		zap.Int("window", len(items)),
		zap.Bool("has_more", page.HasMore),
	)
	return project(req, page, s.admit(request.OpList, vis, items)), nil
}

// Count returns the number of showrooms matching req.
func (s *Service) Count(ctx context.Context, req *request.Request, caller *visibility.Caller) (*result.Count, error) {
	vis := visibility.Resolve(caller, req.Status())
	prefixes := req.GeohashPrefixes()
	out := &result.Count{Mode: countMode(len(prefixes)), PrefixesCount: len(prefixes)}
	metrics.DiscoveryQueriesTotal.WithLabelValues(string(request.OpCount), string(out.Mode)).Inc()

	if vis.Empty {
		return out, nil
	}
	expr, err := baseExpression(req, vis, true)
	if err != nil {
		return nil, err
	}

	exprs := []filter.Expression{expr}
	if len(prefixes) > 0 {
		metrics.DiscoveryFanoutPrefixes.WithLabelValues(string(request.OpCount)).Observe(float64(len(prefixes)))
		exprs = exprs[:0]
		for _, p := range prefixes {
			cond, err := filter.NewPrefix(order.FieldGeohash, p)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
			}
			exprs = append(exprs, expr.And(cond))
		}
	}

	var corrections []filter.Expression
	if !s.jur.CanSkipCorrection(req.Country()) {
		for _, e := range exprs {
			for _, v := range s.jur.Variants() {
				cond, err := filter.NewMatch("country", v)
				if err != nil {
					continue
				}
				corrections = append(corrections, e.And(cond))
			}
		}
	}

	totals := make([]int, len(exprs))
	excluded := make([]int, len(corrections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i, e := range exprs {
		g.Go(func() error {
			n, err := s.source.Count(gctx, e)
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			totals[i] = n
			return nil
		})
	}
	for i, e := range corrections {
		g.Go(func() error {
			n, err := s.source.Count(gctx, e)
			if err != nil {
				return fmt.Errorf("count blocked variant: %w", err)
			}
			excluded[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, request.OpCount, err)
	}

	total, blocked := sum(totals), sum(excluded)
	if blocked > 0 {
		metrics.DiscoveryJurisdictionExcludedTotal.WithLabelValues(string(request.OpCount)).Add(float64(blocked))
	}
	out.Total = max(total-blocked, 0)

	logger.FromContext(ctx).Debug("count",
		zap.String("mode", string(out.Mode)),
		zap.Int("queries", len(exprs)+len(corrections)),
		zap.Int("total", total),
		zap.Int("blocked", blocked),
	)
	return out, nil
}

// fanout runs one bounded scan per geohash prefix concurrently. Each prefix
// contributes up to perPrefix records that survive keep. The first failure
// cancels the remaining sub-queries.
func (s *Service) fanout(
	ctx context.Context, base *scan.Scan, prefixes []string, perPrefix int,
	keep func([]showroom.Showroom) []showroom.Showroom,
) ([][]showroom.Showroom, error) {
	parts := make([][]showroom.Showroom, len(prefixes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range prefixes {
		g.Go(func() error {
			cond, err := filter.NewPrefix(order.FieldGeohash, p)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
			}
			items, err := s.fill(gctx, base.And(cond), perPrefix, keep)
			if err != nil {
				return fmt.Errorf("fetch prefix %s: %w", p, err)
			}
			parts[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// fill reads sc in windows of want records, resuming after the last record
// read, until want records survive keep or the source runs out. A zero want
// reads sc once, unbounded.
func (s *Service) fill(
	ctx context.Context, sc *scan.Scan, want int,
	keep func([]showroom.Showroom) []showroom.Showroom,
) ([]showroom.Showroom, error) {
	cur := sc.WithLimit(want)
	var out []showroom.Showroom
	for {
		items, err := s.source.Fetch(ctx, cur)
		if err != nil {
			return nil, err
		}
		items = cur.Window(items)
		out = append(out, keep(items)...)
		if want <= 0 || len(out) >= want || len(items) < want {
			return out, nil
		}
		last := items[len(items)-1].Position(cur.Order)
		next := *cur
		next.After = &last
		cur = &next
	}
}

// admit applies the visibility and jurisdiction post-filters.
func (s *Service) admit(op request.Op, vis visibility.Visibility, items []showroom.Showroom) []showroom.Showroom {
	out := make([]showroom.Showroom, 0, len(items))
	blocked := 0
	for i := range items {
		if !vis.Allows(&items[i]) {
			continue
		}
		if !s.jur.Allows(&items[i]) {
			blocked++
			continue
		}
		out = append(out, items[i])
	}
	if blocked > 0 {
		metrics.DiscoveryJurisdictionExcludedTotal.WithLabelValues(string(op)).Add(float64(blocked))
	}
	return out
}

// fail records index readiness problems and passes err through.
func (s *Service) fail(ctx context.Context, op request.Op, err error) error {
	var notReady *domain.IndexNotReadyError
	if errors.As(err, &notReady) {
		metrics.DiscoveryIndexNotReadyTotal.WithLabelValues(notReady.Collection).Inc()
		logger.FromContext(ctx).Warn("index not ready",
			zap.String("operation", string(op)),
			zap.String("collection", notReady.Collection),
		)
	}
	return err
}

// baseExpression combines the request filters with the visibility pre-filter.
func baseExpression(req *request.Request, vis visibility.Visibility, withText bool) (filter.Expression, error) {
	visMust, visMustNot := vis.Conditions()
	must, err := req.Conditions()
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
	}
	must = append(must, visMust...)
	if withText {
		c, ok, err := req.TextCondition()
		if err != nil {
			return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
		}
		if ok {
			must = append(must, c)
		}
	}
	brands, err := req.BrandConditions()
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
	}
	expr, err := filter.NewExpression(must, brands, visMustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
	}
	return expr, nil
}

func emptyPage(req *request.Request) *result.Page {
	if req.CursorDisabled() {
		return &result.Page{Paging: result.PagingDisabled, Reason: result.ReasonMultipleGeoBuckets}
	}
	return &result.Page{Paging: result.PagingEnd}
}

// project fills the page with items or markers, never nil.
func project(req *request.Request, page *result.Page, items []showroom.Showroom) *result.Page {
	if req.Fields() == request.FieldsMarker {
		page.Markers = make([]result.Marker, 0, len(items))
		for i := range items {
			page.Markers = append(page.Markers, result.ToMarker(&items[i]))
		}
		return page
	}
	if items == nil {
		items = []showroom.Showroom{}
	}
	page.Items = items
	return page
}

func countMode(prefixes int) result.CountMode {
	switch {
	case prefixes == 0:
		return result.CountNoGeo
	case prefixes == 1:
		return result.CountSinglePrefix
	default:
		return result.CountMultiPrefix
	}
}

func sum(ns []int) int {
	total := 0
	for _, n := range ns {
		total += n
	}
	return total
}
