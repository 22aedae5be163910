package showroomdex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/db"
	dbRedis "github.com/kailas-cloud/showroomdex/internal/db/redis"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
	"github.com/kailas-cloud/showroomdex/internal/repository/memory"
	showroomrepo "github.com/kailas-cloud/showroomdex/internal/repository/showroom"
	discoveryuc "github.com/kailas-cloud/showroomdex/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/showroomdex/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "showroomdex:"
)

// Internal interfaces for substitution in tests.
type discoveryUseCase interface {
	List(ctx context.Context, req *request.Request, caller *visibility.Caller) (*result.Page, error)
	Count(ctx context.Context, req *request.Request, caller *visibility.Caller) (*result.Count, error)
	Suggest(ctx context.Context, req *request.Request, caller *visibility.Caller) ([]result.Suggestion, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the showroomdex SDK entry point.
type Client struct {
	store     db.Store
	pinger    pinger
	index     *showroomrepo.Repo
	parser    *request.Parser
	discovery discoveryUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client backed by Redis (WithRedis) or a fixture snapshot (WithFixtures).
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	if cfg.fixtures != "" {
		repo, err := memory.Load(cfg.fixtures)
		if err != nil {
			return nil, fmt.Errorf("showroomdex: %w", err)
		}
		return wireClient(cfg, obs, nil, repo, repo, healthuc.New(repo, nil), nil), nil
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("showroomdex: database address required (use WithRedis or WithFixtures)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("showroomdex: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("showroomdex: database not ready: %w", err)
	}

	repo := showroomrepo.New(store, cfg.keyPrefix)
	return wireClient(cfg, obs, store, repo, store, healthuc.New(store, repo), repo), nil
}

func wireClient(
	cfg *clientConfig,
	obs *observer,
	store db.Store,
	source discoveryuc.Source,
	p pinger,
	health healthUseCase,
	index *showroomrepo.Repo,
) *Client {
	blocked := visibility.DefaultBlocked()
	if cfg.blocked != nil {
		blocked = make([]visibility.BlockedCountry, 0, len(cfg.blocked))
		for _, b := range cfg.blocked {
			blocked = append(blocked, visibility.BlockedCountry{Code: b.Code, Names: b.Names})
		}
	}

	var svcOpts []discoveryuc.Option
	if cfg.sampleSize > 0 {
		svcOpts = append(svcOpts, discoveryuc.WithSampleSize(cfg.sampleSize))
	}

	return &Client{
		store:     store,
		pinger:    p,
		index:     index,
		parser:    request.NewParser(cfg.limits.merge(request.DefaultLimits())),
		discovery: discoveryuc.New(source, visibility.NewJurisdiction(blocked), svcOpts...),
		healthSvc: health,
		obs:       obs,
	}
}

// merge overlays non-zero fields onto base.
func (l Limits) merge(base request.Limits) request.Limits {
	pick := func(v, d int) int {
		if v > 0 {
			return v
		}
		return d
	}
	pickF := func(v, d float64) float64 {
		if v > 0 {
			return v
		}
		return d
	}
	base.DefaultPageSize = pick(l.DefaultPageSize, base.DefaultPageSize)
	base.MaxPageSize = pick(l.MaxPageSize, base.MaxPageSize)
	base.DefaultSuggestLimit = pick(l.DefaultSuggestLimit, base.DefaultSuggestLimit)
	base.MaxSuggestLimit = pick(l.MaxSuggestLimit, base.MaxSuggestLimit)
	base.MaxGeohashPrefixes = pick(l.MaxGeohashPrefixes, base.MaxGeohashPrefixes)
	base.DefaultNearRadiusKm = pickF(l.DefaultNearRadiusKm, base.DefaultNearRadiusKm)
	base.MaxNearRadiusKm = pickF(l.MaxNearRadiusKm, base.MaxNearRadiusKm)
	return base
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the showroom index if it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	if c.index == nil {
		return false, ErrIndexRequired
	}
	return c.index.EnsureIndex(ctx)
}

// Put derives and stores showrooms.
func (c *Client) Put(ctx context.Context, items []Showroom) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("put", start, err) }()

	if c.index == nil {
		return ErrIndexRequired
	}
	return c.index.Put(ctx, items)
}

// List returns one page for raw query parameters, as accepted by GET /api/v1/showrooms.
func (c *Client) List(ctx context.Context, params url.Values, caller *Caller) (_ *Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list", start, err) }()

	req, err := c.parser.Parse(request.OpList, params)
	if err != nil {
		return nil, err
	}
	page, err := c.discovery.List(ctx, req, caller.toDomain())
	if err != nil {
		return nil, err
	}
	return toPage(page), nil
}

// Count returns the number of showrooms matching raw query parameters.
func (c *Client) Count(ctx context.Context, params url.Values, caller *Caller) (_ Count, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count", start, err) }()

	req, err := c.parser.Parse(request.OpCount, params)
	if err != nil {
		return Count{}, err
	}
	n, err := c.discovery.Count(ctx, req, caller.toDomain())
	if err != nil {
		return Count{}, err
	}
	return toCount(n), nil
}

// Suggest returns autocomplete entries for raw query parameters.
func (c *Client) Suggest(ctx context.Context, params url.Values, caller *Caller) (_ []Suggestion, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggest", start, err) }()

	req, err := c.parser.Parse(request.OpSuggest, params)
	if err != nil {
		return nil, err
	}
	return c.discovery.Suggest(ctx, req, caller.toDomain())
}

// Query starts a fluent discovery query.
func (c *Client) Query() *QueryBuilder {
	return &QueryBuilder{client: c, params: url.Values{}}
}
