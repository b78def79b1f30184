package goRecover

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/internal/events"
	"github.com/MrEthical07/goRecover/internal/flows"
	"github.com/MrEthical07/goRecover/internal/limiters"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a Client. A Builder can be built once.
type Builder struct {
	config Config

	api        API
	httpClient *http.Client
	navigator  Navigator
	redis      redis.UniversalClient
	logger     *zap.Logger
	eventSink  EventSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAPI replaces the HTTP binding. With a custom API, Config.API is not
// used and BaseURL may be empty.
func (b *Builder) WithAPI(a API) *Builder {
	b.api = a
	return b
}

// WithHTTPClient sets the client used by the HTTP binding. Its Timeout takes
// precedence over Config.API.Timeout.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithRedis supplies the backend for the request throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.validate(b.api == nil); err != nil {
		return nil, err
	}
	cfg.deriveMessages()

	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("Throttle requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		config:    cloneConfig(cfg),
		navigator: b.navigator,
		logger:    logger.Named("goRecover"),
		metrics:   NewMetrics(cfg.Metrics),
		now:       time.Now,
		newFlowID: newFlowID,
	}
	if client.navigator == nil {
		client.navigator = noopNavigator{}
	}

	// -------- API --------
	client.api = b.api
	if client.api == nil {
		httpAPI, err := api.New(api.Config{
			BaseURL:           cfg.API.BaseURL,
			Timeout:           cfg.API.Timeout,
			UserAgent:         cfg.API.UserAgent,
			RequestResetPath:  cfg.API.RequestResetPath,
			VerifyTokenPath:   cfg.API.VerifyTokenPath,
			ResetPasswordPath: cfg.API.ResetPasswordPath,
			HTTPClient:        b.httpClient,
		}, logger)
		if err != nil {
			return nil, err
		}
		client.api = httpAPI
	}

	// -------- THROTTLE --------
	if cfg.Throttle.Enabled {
		client.limiter = limiters.NewRequestLimiter(b.redis, limiters.RequestConfig{
			MaxRequests: cfg.Throttle.MaxRequests,
			Window:      cfg.Throttle.Window,
			Prefix:      cfg.Throttle.RedisPrefix,
		})
	}

	// -------- EVENTS --------
	client.events = events.NewDispatcher(events.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.eventSink)

	client.service = flows.New(client.flowDeps())

	b.built = true

	return client, nil
}
