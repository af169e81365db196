package guauth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. Zero-config use:
//
//	client, err := guauth.New().Build()
//
// Construction is allocation-only until Build, which validates the
// configuration, wires the session store, and reloads any persisted session.
type Builder struct {
	config Config

	httpClient *http.Client
	store      SessionStore
	redis      *redis.Client
	sink       EventSink

	built bool
}

// New returns a builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithHTTPClient replaces the transport. The configured API timeout still
// bounds each request through the context.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithSessionStore persists the session through store instead of the
// default in-memory store.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.store = store
	return b
}

// WithRedis persists the session in Redis under the configured prefix.
// Mutually exclusive with WithSessionStore.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithEventSink delivers flow and auth events to sink.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready client. A persisted
// session is reloaded and adopted unless its token is a JWT that has already
// expired, in which case the stored session is discarded.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store != nil && b.redis != nil {
		return nil, errConflictingStores
	}

	store := b.store
	if b.redis != nil {
		store = NewRedisSessionStore(b.redis, cfg.Session)
	}
	if store == nil {
		store = NewMemorySessionStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	defer cancel()

	persisted, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !persisted.Authenticated() || !tokenUsable(persisted.Token, time.Now()) {
		persisted = Session{}
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}

	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, ErrInvalidEndpoint
	}

	client := &Client{
		cfg:     cfg,
		httpc:   httpClient,
		base:    base,
		session: newSessionHolder(store, persisted),
		events:  newEventDispatcher(cfg.Events, b.sink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return client, nil
}
