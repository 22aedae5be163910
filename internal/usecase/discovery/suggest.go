package discovery

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
	"github.com/kailas-cloud/showroomdex/internal/logger"
	"github.com/kailas-cloud/showroomdex/internal/metrics"
)

// MinSuggestRunes is the shortest normalized query that produces suggestions.
const MinSuggestRunes = 2

// Suggest returns up to req.Limit() typed completions for req.Text().
// Showroom names come first, then cities, then brands.
func (s *Service) Suggest(
	ctx context.Context, req *request.Request, caller *visibility.Caller,
) ([]result.Suggestion, error) {
	text := req.Text()
	out := []result.Suggestion{}
	if utf8.RuneCountInString(text) < MinSuggestRunes {
		return out, nil
	}
	metrics.DiscoveryQueriesTotal.WithLabelValues(string(request.OpSuggest), string(req.TextMode())).Inc()

	vis := visibility.Resolve(caller, req.Status())
	if vis.Empty {
		return out, nil
	}
	base, err := baseExpression(req, vis, false)
	if err != nil {
		return nil, err
	}

	byName := req.TextMode() != request.TextCity
	nameCond, hasName, err := req.TextCondition()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryInvalid, err)
	}
	keep := func(items []showroom.Showroom) []showroom.Showroom {
		return s.admit(request.OpSuggest, vis, items)
	}
	var names, sample []showroom.Showroom

	g, gctx := errgroup.WithContext(ctx)
	if byName && hasName {
		g.Go(func() error {
			sc := &scan.Scan{Filter: base.And(nameCond), Order: order.ByName, Limit: req.Limit()}
			items, err := s.collect(gctx, sc, req.GeohashPrefixes(), req.Limit(), keep)
			if err != nil {
				return fmt.Errorf("suggest names: %w", err)
			}
			names = scan.Merge(order.ByName, req.Limit(), items...)
			return nil
		})
	}
	g.Go(func() error {
		sc := &scan.Scan{Filter: base, Order: req.SampleKey(), Limit: s.sampleSize}
		perPrefix := s.sampleSize
		if n := len(req.GeohashPrefixes()); n > 0 {
			perPrefix = (s.sampleSize + n - 1) / n
		}
		items, err := s.collect(gctx, sc, req.GeohashPrefixes(), perPrefix, keep)
		if err != nil {
			return fmt.Errorf("suggest sample: %w", err)
		}
		sample = scan.Merge(req.SampleKey(), 0, items...)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, request.OpSuggest, err)
	}

	acc := newSuggestions(req.Limit())
	if byName {
		for i := range names {
			acc.add(showroomSuggestion(&names[i]))
		}
		for _, sg := range brandSuggestions(sample, text) {
			acc.add(sg)
		}
	} else {
		for _, sg := range citySuggestions(sample, text) {
			acc.add(sg)
		}
	}

	logger.FromContext(ctx).Debug("suggest",
		zap.String("q_mode", string(req.TextMode())),
		zap.Int("names", len(names)),
		zap.Int("sample", len(sample)),
		zap.Int("suggestions", len(acc.items)),
	)
	return acc.items, nil
}

// collect reads sc directly, or once per geohash prefix when prefixes are set,
// keeping only records that survive keep.
func (s *Service) collect(
	ctx context.Context, sc *scan.Scan, prefixes []string, perPrefix int,
	keep func([]showroom.Showroom) []showroom.Showroom,
) ([][]showroom.Showroom, error) {
	if len(prefixes) == 0 {
		items, err := s.fill(ctx, sc, sc.Limit, keep)
		if err != nil {
			return nil, err
		}
		return [][]showroom.Showroom{items}, nil
	}
	metrics.DiscoveryFanoutPrefixes.WithLabelValues(string(request.OpSuggest)).Observe(float64(len(prefixes)))
	return s.fanout(ctx, sc, prefixes, perPrefix, keep)
}

type suggestions struct {
	limit int
	seen  map[string]struct{}
	items []result.Suggestion
}

func newSuggestions(limit int) *suggestions {
	return &suggestions{limit: limit, seen: make(map[string]struct{}), items: []result.Suggestion{}}
}

// add appends sg unless the limit is reached or (type, lower(value)) was seen.
func (a *suggestions) add(sg result.Suggestion) {
	if len(a.items) >= a.limit || sg.Value == "" {
		return
	}
	key := string(sg.Type) + "\x00" + strings.ToLower(sg.Value)
	if _, ok := a.seen[key]; ok {
		return
	}
	a.seen[key] = struct{}{}
	a.items = append(a.items, sg)
}

func showroomSuggestion(s *showroom.Showroom) result.Suggestion {
	return result.Suggestion{
		Type:  result.SuggestShowroom,
		Value: s.Name,
		Payload: map[string]string{
			"id":   s.ID,
			"city": s.Geo.City,
			"type": string(s.Type),
		},
	}
}

// citySuggestions groups the sample by normalized city; the first record of each city wins.
func citySuggestions(sample []showroom.Showroom, text string) []result.Suggestion {
	var out []result.Suggestion
	seen := make(map[string]struct{})
	for i := range sample {
		g := &sample[i].Geo
		if g.CityNormalized == "" || !strings.HasPrefix(g.CityNormalized, text) {
			continue
		}
		if _, ok := seen[g.CityNormalized]; ok {
			continue
		}
		seen[g.CityNormalized] = struct{}{}
		value := g.City
		if value == "" {
			value = g.CityNormalized
		}
		country := g.Country
		if country == "" {
			country = sample[i].Country
		}
		out = append(out, result.Suggestion{
			Type:    result.SuggestCity,
			Value:   value,
			Payload: map[string]string{"cityNormalized": g.CityNormalized, "country": country},
		})
	}
	return out
}

// brandSuggestions scans each sampled record's brand list, falling back to
// the presence-map keys of legacy records.
func brandSuggestions(sample []showroom.Showroom, text string) []result.Suggestion {
	var out []result.Suggestion
	for i := range sample {
		for _, brand := range brandNames(&sample[i]) {
			normalized := showroom.NormalizeText(brand)
			if !strings.HasPrefix(normalized, text) {
				continue
			}
			out = append(out, result.Suggestion{
				Type:  result.SuggestBrand,
				Value: brand,
				Payload: map[string]string{
					"brandKey":        showroom.BrandKey(brand),
					"brandNormalized": normalized,
				},
			})
		}
	}
	return out
}

func brandNames(s *showroom.Showroom) []string {
	if len(s.Brands) > 0 {
		return s.Brands
	}
	keys := s.BrandKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.ReplaceAll(k, "_", " ")
	}
	return names
}
