package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/relatorlabs/beacon/api"
	"github.com/relatorlabs/beacon/errors"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/resilience"
)

// Client talks to a beacon registry on behalf of a single process.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewClient builds a Client from cfg. The logger may be nil, in which case
// the global logger is used.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidInput("config", err.Error())
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
		log:  log.WithComponent("discovery"),
	}, nil
}

// RegisterOptions describe the service announcement sent to the registry.
type RegisterOptions struct {
	// Name is the service name to register under.
	Name string

	// Port is the port the service listens on.
	Port int

	// Host overrides the advertised host. When empty the client uses the
	// configured AdvertiseIP, falling back to local IP autodetection.
	Host string

	// Metadata is attached to the registry record as-is.
	Metadata map[string]any

	// TTLSeconds overrides the registry's default lease TTL.
	TTLSeconds int
}

// Registration is a live lease held with the registry. It renews itself on
// a background ticker until Close is called.
type Registration struct {
	client *Client
	opts   RegisterOptions

	mu        sync.Mutex
	endpoint  string
	expiresAt time.Time

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Endpoint returns the "host:port" string this registration advertises.
func (r *Registration) Endpoint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endpoint
}

// ExpiresAt returns the current lease deadline as of the last renewal.
func (r *Registration) ExpiresAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expiresAt
}

// Register announces the service to the registry and returns a Registration
// that keeps the lease alive. The caller must Close it on shutdown.
func (c *Client) Register(ctx context.Context, opts RegisterOptions) (*Registration, error) {
	if opts.Name == "" {
		return nil, errors.MissingField("name")
	}
	if opts.Port <= 0 {
		return nil, errors.MissingField("port")
	}
	if opts.Host == "" {
		opts.Host = c.advertiseHost()
	}

	resp, err := c.register(ctx, opts)
	if err != nil {
		return nil, err
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	reg := &Registration{
		client:    c,
		opts:      opts,
		endpoint:  resp.Endpoint,
		expiresAt: resp.ExpiresAt,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go reg.heartbeat(hbCtx, c.cfg.HeartbeatInterval)

	c.log.Info("registered with registry", logger.Fields(
		logger.FieldName, opts.Name,
		logger.FieldEndpoint, resp.Endpoint,
	))
	return reg, nil
}

// RegisterOnce announces the service without starting a heartbeat. The
// record expires after one lease TTL unless renewed by another call. Useful
// for one-shot tooling; long-running services should use Register.
func (c *Client) RegisterOnce(ctx context.Context, opts RegisterOptions) (*api.RegisterResponse, error) {
	if opts.Name == "" {
		return nil, errors.MissingField("name")
	}
	if opts.Port <= 0 {
		return nil, errors.MissingField("port")
	}
	if opts.Host == "" {
		opts.Host = c.advertiseHost()
	}
	return c.register(ctx, opts)
}

func (c *Client) register(ctx context.Context, opts RegisterOptions) (*api.RegisterResponse, error) {
	req := api.RegisterRequest{
		Name:       opts.Name,
		Host:       opts.Host,
		Port:       opts.Port,
		Metadata:   opts.Metadata,
		TTLSeconds: opts.TTLSeconds,
	}
	var out api.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// heartbeat re-registers on every tick. Re-registration doubles as lease
// renewal on the registry side, so a missed beat is tolerable as long as
// the lease TTL covers several intervals.
func (r *Registration) heartbeat(ctx context.Context, interval time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := r.client.register(ctx, r.opts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.client.log.Warn("heartbeat failed", logger.Fields(
					logger.FieldName, r.opts.Name,
					logger.FieldError, err.Error(),
				))
				continue
			}
			r.mu.Lock()
			r.endpoint = resp.Endpoint
			r.expiresAt = resp.ExpiresAt
			r.mu.Unlock()
		}
	}
}

// Close stops the heartbeat and removes the record from the registry. The
// unregister call is best-effort: if the registry is unreachable the record
// simply expires once its lease runs out.
func (r *Registration) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		<-r.done

		ctx, cancel := context.WithTimeout(context.Background(), r.client.cfg.RequestTimeout)
		defer cancel()
		if _, err := r.client.Unregister(ctx, r.opts.Name); err != nil {
			r.client.log.Warn("unregister on close failed; record will expire", logger.Fields(
				logger.FieldName, r.opts.Name,
				logger.FieldError, err.Error(),
			))
			r.closeErr = err
		}
	})
	return r.closeErr
}

// Find resolves a service name to its current endpoint, retrying with
// exponential backoff while the target has not registered yet. Static
// overrides and the <NAME>_SERVICE_ADDR environment variable bypass the
// registry entirely.
func (c *Client) Find(ctx context.Context, name string) (*api.ServiceResponse, error) {
	if addr := c.staticOverride(name); addr != "" {
		c.log.Debug("using static override", logger.Fields(
			logger.FieldName, name,
			logger.FieldEndpoint, addr,
		))
		host, port := splitEndpoint(addr)
		return &api.ServiceResponse{Name: name, Host: host, Port: port, Endpoint: addr}, nil
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    c.cfg.FindMaxAttempts,
		InitialBackoff: c.cfg.FindInitialBackoff,
		MaxBackoff:     c.cfg.FindMaxBackoff,
		BackoffFactor:  2.0,
		Jitter:         0.2,
		RetryIf:        retryableLookup,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.log.Debug("service not resolvable yet, retrying", logger.Fields(
				logger.FieldName, name,
				"attempt", attempt,
				"backoff_ms", backoff.Milliseconds(),
				logger.FieldError, err.Error(),
			))
		},
	}

	out, err := resilience.Retry(ctx, retryCfg, func() (*api.ServiceResponse, error) {
		var svc api.ServiceResponse
		if derr := c.do(ctx, http.MethodGet, "/discover/"+name, nil, &svc); derr != nil {
			return nil, derr
		}
		return &svc, nil
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && !appErr.Retryable && appErr.Code != errors.ErrCodeNotFound {
			return nil, err
		}
		return nil, errors.ServiceUnavailable(name).WithCause(err)
	}
	return out, nil
}

// retryableLookup retries lookups that can succeed once the target service
// registers: not-found and transient transport or server failures. Auth and
// input errors never resolve by waiting.
func retryableLookup(err error) bool {
	if !resilience.DefaultRetryIf(err) {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Code {
		case errors.ErrCodeUnauthorized, errors.ErrCodeInvalidInput, errors.ErrCodeMissingField:
			return false
		}
	}
	return true
}

// List returns every live registration.
func (c *Client) List(ctx context.Context) (*api.ListResponse, error) {
	var out api.ListResponse
	if err := c.do(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unregister removes a record by name. The returned flag reports whether a
// record was actually present.
func (c *Client) Unregister(ctx context.Context, name string) (bool, error) {
	var out api.UnregisterResponse
	if err := c.do(ctx, http.MethodDelete, "/unregister/"+name, nil, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

// Health reports the registry's own health.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one authenticated JSON round-trip and maps non-2xx responses
// onto the shared error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Internal(fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	url := strings.TrimRight(c.cfg.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Internal(fmt.Errorf("build request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.ConnectionFailed("registry").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Internal(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	var errResp errors.ErrorResponse
	if derr := json.NewDecoder(resp.Body).Decode(&errResp); derr == nil && errResp.Error.Code != "" {
		return &errors.AppError{
			Code:       errResp.Error.Code,
			Message:    errResp.Error.Message,
			Retryable:  errResp.Error.Retryable,
			HTTPStatus: resp.StatusCode,
			Details:    errResp.Error.Details,
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errors.Unauthorized("registry rejected credentials")
	case http.StatusNotFound:
		return errors.NotFound("service", strings.TrimPrefix(path, "/discover/"))
	default:
		return errors.ServiceUnavailable("registry")
	}
}

// advertiseHost resolves the host this process should register under.
func (c *Client) advertiseHost() string {
	if c.cfg.AdvertiseIP != "" {
		return c.cfg.AdvertiseIP
	}
	return localIP()
}

// localIP discovers the preferred outbound IP by opening a UDP socket toward
// a public address. No packets are sent.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// staticOverride returns a fixed address for name, from config or from the
// <NAME>_SERVICE_ADDR environment variable.
func (c *Client) staticOverride(name string) string {
	if addr, ok := c.cfg.StaticOverrides[name]; ok && addr != "" {
		return addr
	}
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name)) + "_SERVICE_ADDR"
	return os.Getenv(envKey)
}

func splitEndpoint(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return host, port
}
