package upload

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/infra/buildinfo"
	"github.com/johnmalek312/android-ui-collector/internal/infra/tlsroots"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

// Multipart part names expected by the sink.
const (
	PartImage        = "image"
	PartAnnotations  = "annotations"
	PartCenterPoints = "center_points"
)

// Default client settings.
const (
	DefaultPath        = "/upload/"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 4
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultBackoffMax  = 8 * time.Second
)

// Headers sent with every upload.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderAPIKey    = "X-API-Key"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the sink base URL, e.g. "http://localhost:8000".
	Endpoint string

	// Path is the upload route. Default: "/upload/".
	Path string

	// APIKey is sent as X-API-Key when set.
	APIKey string

	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// RateLimit caps attempts per second across all Send calls.
	// 0 means unlimited.
	RateLimit float64

	// CAFile is a PEM bundle trusted in addition to the system roots,
	// for sinks serving a private certificate.
	CAFile string
}

// DefaultConfig returns the default configuration for endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:    endpoint,
		Path:        DefaultPath,
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
	}
}

// Payload is one upload: the screenshot plus both full datasets.
type Payload struct {
	// RequestID is sent as X-Request-ID; the commit ID is used.
	RequestID string

	ImageName string
	Image     []byte

	// Dataset file contents and names (without extension).
	CubeName   string
	Cube       []byte
	CenterName string
	Center     []byte
}

// Result is the sink response.
type Result struct {
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Files     map[string]string `json:"files"`

	Attempts   int `json:"-"`
	StatusCode int `json:"-"`
}

// Client uploads payloads to the sink. It never touches local storage.
type Client struct {
	cfg     Config
	base    string
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, domain.ErrUploadDisabled
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = max(DefaultBackoffMax, cfg.BackoffBase)
	}
	if log == nil {
		log = slog.Default()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	tlsConfig, err := tlsroots.ClientConfig(cfg.CAFile)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		httpClient.Transport = transport
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		cfg:     cfg,
		base:    endpoint,
		url:     endpoint + "/" + strings.TrimLeft(cfg.Path, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
		sleep:   sleepContext,
	}, nil
}

// URL returns the upload URL.
func (c *Client) URL() string { return c.url }

// Backoff returns the wait before retry number attempt (1-based).
func (c *Client) Backoff(attempt int) time.Duration {
	d := c.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.cfg.BackoffMax {
			return c.cfg.BackoffMax
		}
	}
	return min(d, c.cfg.BackoffMax)
}

// Send uploads p, retrying transient failures.
func (c *Client) Send(ctx context.Context, p *Payload) (*Result, error) {
	body, contentType, err := encode(p)
	if err != nil {
		return nil, domain.ErrInternal.WithDetails("encode upload").WithCause(err)
	}

	log := logger.Enrich(ctx, c.logger)
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.ErrUploadTransient.WithDetails("cancelled").WithCause(err)
		}

		res, retryAfter, err := c.attempt(ctx, p.RequestID, body, contentType)
		if err == nil {
			res.Attempts = attempt
			log.Info("upload succeeded", "request_id", p.RequestID, "attempts", attempt, "files", res.Files)
			return res, nil
		}
		if errors.Is(err, domain.ErrUploadRejected) {
			log.Warn("upload rejected", "request_id", p.RequestID, "error", err)
			return nil, err
		}
		lastErr = err

		if attempt == c.cfg.MaxAttempts {
			break
		}
		wait := c.Backoff(attempt)
		if retryAfter > 0 {
			wait = min(retryAfter, c.cfg.BackoffMax)
		}
		log.Warn("upload attempt failed, retrying",
			"request_id", p.RequestID, "attempt", attempt, "wait", wait, "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, domain.ErrUploadTransient.WithDetails("cancelled").WithCause(err)
		}
	}

	return nil, domain.ErrUploadTransient.
		WithDetails(fmt.Sprintf("giving up after %d attempts", c.cfg.MaxAttempts)).
		WithCause(lastErr)
}

// attempt performs one request. Errors are classified as transient or
// ErrUploadRejected.
func (c *Client) attempt(ctx context.Context, requestID string, body []byte, contentType string) (*Result, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, domain.ErrUploadRejected.WithDetails("invalid upload url").WithCause(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", buildinfo.UserAgent("uicollector"))
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set(HeaderAPIKey, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if untrusted(err) {
			return nil, 0, domain.ErrUploadRejected.WithDetails("sink certificate not trusted").WithCause(err)
		}
		return nil, 0, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := errorMessage(data, resp.StatusCode)
		if Retryable(resp.StatusCode) {
			return nil, retryAfter(resp.Header.Get("Retry-After")), errors.New(msg)
		}
		return nil, 0, domain.ErrUploadRejected.WithDetails(msg)
	}

	var res Result
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &res); err != nil {
			c.logger.Debug("sink response is not json", "status", resp.StatusCode)
		}
	}
	res.StatusCode = resp.StatusCode
	return &res, 0, nil
}

// untrusted reports whether err is a certificate verification failure.
// Retrying cannot change the outcome.
func untrusted(err error) bool {
	var (
		verify    *tls.CertificateVerificationError
		authority x509.UnknownAuthorityError
		hostname  x509.HostnameError
		invalid   x509.CertificateInvalidError
	)
	return errors.As(err, &verify) ||
		errors.As(err, &authority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid)
}

// Retryable reports whether an HTTP status is worth retrying.
func Retryable(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// errorMessage extracts a message from sink error bodies of the form
// {"detail": "..."} or {"code": "...", "message": "..."}.
func errorMessage(data []byte, status int) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Code != "" && body.Message != "":
			return fmt.Sprintf("status %d: [%s] %s", status, body.Code, body.Message)
		case body.Detail != "":
			return fmt.Sprintf("status %d: %s", status, body.Detail)
		case body.Message != "":
			return fmt.Sprintf("status %d: %s", status, body.Message)
		}
	}
	return fmt.Sprintf("status %d", status)
}

func encode(p *Payload) ([]byte, string, error) {
	cubeName := p.CubeName
	if cubeName == "" {
		cubeName = domain.DatasetCube
	}
	centerName := p.CenterName
	if centerName == "" {
		centerName = domain.DatasetCenter
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	parts := []struct {
		field, file string
		data        []byte
	}{
		{PartImage, p.ImageName, p.Image},
		{PartAnnotations, cubeName + ".json", p.Cube},
		{PartCenterPoints, centerName + ".json", p.Center},
	}
	for _, part := range parts {
		fw, err := w.CreateFormFile(part.field, part.file)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(part.data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health checks the sink's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ErrUploadTransient.WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return domain.ErrUploadTransient.WithDetails(fmt.Sprintf("health status %d", resp.StatusCode))
	}
	return nil
}
