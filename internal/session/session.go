// Package session provides the isolated HTTP session a worker holds for one job.
//
// Target services track submission state through cookies and login tokens, so
// every job gets a fresh cookie jar and connections are never reused across
// jobs. TLS verification is disabled: the services routinely run on
// self-signed or expired certificates.
package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"stabbench/internal/apperrors"
	"stabbench/pkg/backoff"
	"stabbench/pkg/circuitbreaker"
)

const (
	defaultTimeout = 30 * time.Second
	maxResponse    = 10 * 1024 * 1024 // 10 MB

	// Some services reject non-browser clients outright.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"

	// Transient transport errors on idempotent requests are retried this
	// many extra times before the job is classified ConnectionFailed.
	getRetries = 3
)

const boundaryChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Config holds session construction parameters.
type Config struct {
	Timeout   time.Duration            // per-request timeout (default: 30s)
	UserAgent string                   // default: desktop browser string
	Breakers  *circuitbreaker.Registry // optional, shared across sessions of one predictor
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string // final URL after redirects
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// OK reports whether the response status is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Session is an isolated HTTP client for a single job attempt.
type Session struct {
	cfg      Config
	client   *http.Client
	boundary string
}

// New creates a session with its own cookie jar and connection policy.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()

	jar, _ := cookiejar.New(nil)
	return &Session{
		cfg: cfg,
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
				DisableKeepAlives: true,
			},
		},
		boundary: "----WebKitFormBoundary" + randomToken(16),
	}
}

func randomToken(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(boundaryChars[rand.IntN(len(boundaryChars))])
	}
	return b.String()
}

// Get sends a GET request. Transient transport errors are retried with
// exponential backoff; the per-host circuit breaker short-circuits hosts
// that keep failing across workers.
func (s *Session) Get(ctx context.Context, rawURL string) (*Response, error) {
	var lastErr error
	for attempt := range getRetries + 1 {
		if attempt > 0 {
			if err := backoff.Sleep(ctx, backoff.Exponential(attempt, nil)); err != nil {
				return nil, apperrors.Connection("session.get", err)
			}
		}

		resp, err := s.do(ctx, "session.get", http.MethodGet, rawURL, "", nil)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// PostForm sends an application/x-www-form-urlencoded POST.
// POSTs are not retried: a duplicate submission would enqueue the job twice.
func (s *Session) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	body := strings.NewReader(form.Encode())
	return s.do(ctx, "session.post", http.MethodPost, rawURL,
		"application/x-www-form-urlencoded", body)
}

// PostMultipart sends a multipart/form-data POST with a browser-style
// WebKit boundary. Field order follows the fields slice, since some
// services parse the form positionally.
func (s *Session) PostMultipart(ctx context.Context, rawURL string, fields []FormField) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(s.boundary); err != nil {
		return nil, apperrors.Predictor("session.multipart", err)
	}
	for _, f := range fields {
		if f.Filename != "" {
			fw, err := w.CreateFormFile(f.Name, f.Filename)
			if err != nil {
				return nil, apperrors.Predictor("session.multipart", err)
			}
			if _, err := fw.Write([]byte(f.Value)); err != nil {
				return nil, apperrors.Predictor("session.multipart", err)
			}
			continue
		}
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, apperrors.Predictor("session.multipart", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Predictor("session.multipart", err)
	}

	return s.do(ctx, "session.post", http.MethodPost, rawURL, w.FormDataContentType(), &buf)
}

// FormField is one multipart form entry. A non-empty Filename makes it a
// file part.
type FormField struct {
	Name     string
	Value    string
	Filename string
}

func (s *Session) do(ctx context.Context, op, method, rawURL, contentType string, body io.Reader) (*Response, error) {
	host := extractHost(rawURL)
	var breaker *circuitbreaker.Breaker
	if s.cfg.Breakers != nil {
		breaker = s.cfg.Breakers.Get(host)
		if !breaker.Allow() {
			return nil, apperrors.Connection(op, fmt.Errorf("circuit open for host %q", host))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, apperrors.Predictor(op, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if breaker != nil {
			breaker.RecordFailure()
		}
		return nil, apperrors.Connection(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		if breaker != nil {
			breaker.RecordFailure()
		}
		return nil, apperrors.Connection(op, err)
	}

	if breaker != nil {
		breaker.RecordSuccess()
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		URL:        resp.Request.URL.String(),
	}, nil
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
