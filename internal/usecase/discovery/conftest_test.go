package discovery

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/scan"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
	"github.com/kailas-cloud/showroomdex/internal/repository/memory"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// mockSource records calls and delegates to fn fields or a fallback source.
type mockSource struct {
	mu       sync.Mutex
	fetches  []*scan.Scan
	counts   []filter.Expression
	fetchFn  func(ctx context.Context, sc *scan.Scan) ([]showroom.Showroom, error)
	countFn  func(ctx context.Context, expr filter.Expression) (int, error)
	fallback Source
}

func (m *mockSource) Fetch(ctx context.Context, sc *scan.Scan) ([]showroom.Showroom, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, sc)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, sc)
	}
	return m.fallback.Fetch(ctx, sc)
}

func (m *mockSource) Count(ctx context.Context, expr filter.Expression) (int, error) {
	m.mu.Lock()
	m.counts = append(m.counts, expr)
	m.mu.Unlock()
	if m.countFn != nil {
		return m.countFn(ctx, expr)
	}
	return m.fallback.Count(ctx, expr)
}

func (m *mockSource) calls() (fetches, counts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches), len(m.counts)
}

func coords(lat, lng float64) *showroom.Coords { return &showroom.Coords{Lat: lat, Lng: lng} }

// fixture is a small catalogue spread over the u4pr, u4ps, u4pt and u4pu buckets
// plus one blocked-country record and records of every status.
func fixture() []showroom.Showroom {
	mk := func(id, name string, st showroom.Status, owner, city string, at int) showroom.Showroom {
		return showroom.Showroom{
			ID: id, Name: name, Status: st, OwnerUID: owner,
			Type: showroom.TypeMultibrand, Category: "clothing", CategoryGroup: "clothing",
			Country: "Denmark",
			Geo:     showroom.Geo{City: city, Country: "Denmark"},
			UpdatedAt: t0.Add(time.Duration(at) * time.Minute),
		}
	}

	s01 := mk("s01", "Nordic Form", showroom.StatusApproved, "u1", "Aalborg", 50)
	s01.Geo.Coords = coords(57.64911, 10.40744) // u4pruydqq
	s01.Brands = []string{"Acne Studios", "Ganni"}

	s02 := mk("s02", "Harbour Store", showroom.StatusApproved, "u1", "Aalborg", 40)
	s02.Geo.Coords = coords(57.60, 10.30) // u4prdmu0r
	s02.Type = showroom.TypeUnique
	s02.Brands = []string{"Ganni"}

	s03 := mk("s03", "Skagen Loft", showroom.StatusApproved, "u2", "Frederikshavn", 30)
	s03.Geo.Coords = coords(57.041, 10.7227) // u4pskpbpc
	s03.Brands = []string{"Acne Studios"}

	s04 := mk("s04", "Tide House", showroom.StatusApproved, "u2", "Sæby", 20)
	s04.Geo.Coords = coords(57.2168, 10.7227) // u4pts0001
	s04.Brands = []string{"Hay"}
	s04.Category = "interior"
	s04.CategoryGroup = "home"

	s05 := mk("s05", "North Point", showroom.StatusApproved, "u3", "Aalborg", 10)
	s05.Geo.Coords = coords(57.041, 11.0742) // u4pu7zzzz
	s05.Brands = []string{"Norse Projects"}

	s06 := mk("s06", "Zaha Atelier", showroom.StatusDraft, "u2", "Aalborg", 60)

	s07 := mk("s07", "Moscow Gallery", showroom.StatusApproved, "u3", "Moscow", 70)
	s07.Country = "russia"
	s07.Geo.Country = "Russia"
	s07.Geo.Coords = coords(55.8105, 37.793) // ucfvkpbp8
	s07.Brands = []string{"Acne Studios"}

	s08 := mk("s08", "Deleted Shop", showroom.StatusDeleted, "u1", "Aalborg", 80)
	s09 := mk("s09", "Pending Place", showroom.StatusPending, "u1", "Aalborg", 5)

	s10 := mk("s10", "Hay Corner", showroom.StatusApproved, "u3", "Aarhus", 10)
	s10.Country = ""
	s10.BrandsMap = map[string]bool{"norse_projects": true}

	return []showroom.Showroom{s01, s02, s03, s04, s05, s06, s07, s08, s09, s10}
}

func newFixtureService(opts ...Option) (*Service, *mockSource) {
	src := &mockSource{fallback: memory.New(fixture())}
	return New(src, nil, opts...), src
}

func parse(t *testing.T, op request.Op, query string) *request.Request {
	t.Helper()
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("parse query %q: %v", query, err)
	}
	req, err := request.NewParser(request.DefaultLimits()).Parse(op, values)
	if err != nil {
		t.Fatalf("Parse(%s, %q): %v", op, query, err)
	}
	return req
}

func pageIDs(items []showroom.Showroom) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}
