package session

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stabbench/internal/apperrors"
	"stabbench/pkg/circuitbreaker"
)

func TestSession_CookiesPersistWithinSession(t *testing.T) {
	t.Parallel()

	var sawCookie atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil && c.Value == "abc" {
			sawCookie.Store(true)
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
	}))
	defer server.Close()

	s := New(Config{})
	if _, err := s.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("first GET failed: %v", err)
	}
	if _, err := s.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("second GET failed: %v", err)
	}
	if !sawCookie.Load() {
		t.Error("expected the session cookie to be replayed on the second request")
	}

	// A fresh session must not carry the old jar.
	sawCookie.Store(false)
	if _, err := New(Config{}).Get(context.Background(), server.URL); err != nil {
		t.Fatalf("fresh session GET failed: %v", err)
	}
	if sawCookie.Load() {
		t.Error("fresh session leaked cookies from a previous session")
	}
}

func TestSession_GetRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Drop the first connection mid-flight.
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	server.Start()
	defer server.Close()

	resp, err := New(Config{}).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if !resp.OK() {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if calls.Load() < 2 {
		t.Errorf("expected at least 2 attempts, got %d", calls.Load())
	}
}

func TestSession_GetConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := New(Config{}).Get(context.Background(), server.URL)
	if !errors.Is(err, apperrors.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestSession_PostFormNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hj, _ := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	server.Start()
	defer server.Close()

	_, err := New(Config{}).PostForm(context.Background(), server.URL, url.Values{"a": {"1"}})
	if !errors.Is(err, apperrors.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("POST must not be retried, saw %d attempts", calls.Load())
	}
}

func TestSession_PostForm(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("mutation") != "A123G" {
			t.Errorf("expected mutation field, got %q", r.PostForm.Get("mutation"))
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser user agent, got %q", ua)
		}
	}))
	defer server.Close()

	resp, err := New(Config{}).PostForm(context.Background(), server.URL,
		url.Values{"mutation": {"A123G"}})
	if err != nil {
		t.Fatalf("PostForm failed: %v", err)
	}
	if !resp.OK() {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSession_PostMultipart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("bad content type: %v", err)
			return
		}
		if !strings.HasPrefix(params["boundary"], "----WebKitFormBoundary") {
			t.Errorf("expected WebKit boundary, got %q", params["boundary"])
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if r.FormValue("chain") != "A" {
			t.Errorf("expected chain field, got %q", r.FormValue("chain"))
		}
		file, header, err := r.FormFile("structure")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "1abc.pdb" {
			t.Errorf("expected filename 1abc.pdb, got %q", header.Filename)
		}
	}))
	defer server.Close()

	_, err := New(Config{}).PostMultipart(context.Background(), server.URL, []FormField{
		{Name: "chain", Value: "A"},
		{Name: "structure", Value: "ATOM ...", Filename: "1abc.pdb"},
	})
	if err != nil {
		t.Fatalf("PostMultipart failed: %v", err)
	}
}

func TestSession_BreakerShortCircuits(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{Threshold: 1, Cooldown: time.Hour})
	s := New(Config{Breakers: breakers})

	if _, err := s.Get(context.Background(), server.URL); err == nil {
		t.Fatal("expected first GET to fail")
	}

	// Circuit is open now; the next request must fail without touching the
	// network.
	start := time.Now()
	_, err := s.Get(context.Background(), server.URL)
	if !errors.Is(err, apperrors.ErrConnection) {
		t.Fatalf("expected ErrConnection from open circuit, got %v", err)
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("expected circuit-open message, got %q", err.Error())
	}
	if time.Since(start) > 5*time.Second {
		t.Error("open circuit should fail fast")
	}
}
