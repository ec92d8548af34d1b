package xtream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/metrics"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "xtream-companion"
	defaultMaxPerHost  = 4
	defaultTripAfter   = 5
	defaultOpenTimeout = 30 * time.Second

	// Les listes complètes (films/séries) peuvent être volumineuses.
	maxBodyBytes = 64 << 20
)

type Options struct {
	// Timeout par requête amont. Un dépassement donne ErrUpstreamTimeout.
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool
	MaxPerHost         int
	// Échecs réseau consécutifs avant ouverture du disjoncteur d'un hôte.
	BreakerTripAfter uint32
	// Durée pendant laquelle un hôte reste coupé avant un nouvel essai.
	BreakerOpenTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:            defaultTimeout,
		UserAgent:          defaultUserAgent,
		MaxPerHost:         defaultMaxPerHost,
		BreakerTripAfter:   defaultTripAfter,
		BreakerOpenTimeout: defaultOpenTimeout,
	}
}

// NewHTTPClient construit le client HTTP partagé. Le timeout est appliqué par requête
// dans Client.Get, pas ici.
func NewHTTPClient(opts Options) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if opts.InsecureSkipVerify {
		// Beaucoup de panels servent des certificats invalides.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: transport}
}

// Client exécute une requête player_api et décode la réponse.
// Aucune relance automatique: la politique de retry appartient à l'appelant.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
	opts   Options

	limiters *hostLimiters

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewClient(httpClient *http.Client, logger zerolog.Logger, opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.MaxPerHost <= 0 {
		opts.MaxPerHost = def.MaxPerHost
	}
	if opts.BreakerTripAfter == 0 {
		opts.BreakerTripAfter = def.BreakerTripAfter
	}
	if opts.BreakerOpenTimeout <= 0 {
		opts.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(opts)
	}
	return &Client{
		http:     httpClient,
		logger:   logger,
		opts:     opts,
		limiters: newHostLimiters(opts.MaxPerHost),
		breakers: map[string]*gobreaker.CircuitBreaker[[]byte]{},
	}
}

// statusError: réponse non-2xx de l'amont.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d", ports.ErrUpstreamRejected, e.Code)
}

func (e *statusError) Is(target error) bool { return target == ports.ErrUpstreamRejected }

// Get émet exactement une requête GET et décode le corps dans out.
func (c *Client) Get(ctx context.Context, creds domain.Credentials, p Params, out any) error {
	target, err := BuildURL(creds, p)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUpstreamUnreachable, err)
	}
	host := hostOf(creds.Server)
	action := p.Action
	if action == "" {
		action = "user_info"
	}

	start := time.Now()
	body, err := c.breaker(host).Execute(func() ([]byte, error) {
		return c.fetch(ctx, host, target)
	})
	metrics.UpstreamDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequests.WithLabelValues(action, "open").Inc()
			return fmt.Errorf("%s: circuit open: %w", host, ports.ErrUpstreamUnreachable)
		}
		metrics.UpstreamRequests.WithLabelValues(action, outcomeOf(err)).Inc()
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.UpstreamRequests.WithLabelValues(action, "decode").Inc()
		c.logger.Debug().Err(err).Str("host", host).Str("action", action).Msg("upstream decode failed")
		return fmt.Errorf("%s: %w: %v", action, ports.ErrUpstreamDecodeFailed, err)
	}
	metrics.UpstreamRequests.WithLabelValues(action, "ok").Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context, host, target string) ([]byte, error) {
	lim := c.limiters.get(host)
	if err := lim.Acquire(ctx); err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer lim.Release()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrUpstreamUnreachable, redact(err))
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &statusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	return body, nil
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	tripAfter := c.opts.BreakerTripAfter
	metrics.CircuitBreakerState.WithLabelValues(host).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     c.opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// Seuls les problèmes d'hôte comptent: réseau, timeout, 5xx.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	c.breakers[host] = cb
	return cb
}

// classifyTransport distingue timeout et hôte injoignable. L'URL (qui contient
// le mot de passe) est retirée du message.
func classifyTransport(ctx context.Context, err error) error {
	err = redact(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ports.UpstreamTimeoutError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ports.UpstreamTimeoutError(err)
	}
	return fmt.Errorf("%w: %w", ports.ErrUpstreamUnreachable, err)
}

func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ports.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ports.ErrUpstreamRejected):
		return "rejected"
	default:
		return "unreachable"
	}
}

func hostOf(server string) string {
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return server
	}
	return u.Scheme + "://" + u.Host
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
