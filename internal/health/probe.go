// Package health provides the up-front reachability probe for target services.
package health

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

// Availability is the outcome of a reachability probe.
type Availability string

const (
	Available Availability = "available"
	Offline   Availability = "offline"
)

// Prober checks whether a target service is reachable before any jobs are
// dispatched against it. Implemented for real HTTP by Checker; tests supply
// their own.
type Prober interface {
	Probe(ctx context.Context, url string) Availability
}

const probeTimeout = 10 * time.Second

// Checker probes a target service with a single GET request.
//
// Target services commonly sit behind self-signed or expired certificates,
// so TLS verification is disabled. Any network error or non-200 response
// maps to Offline; the caller fails the whole batch fast, no retries.
type Checker struct {
	client *http.Client
}

// NewChecker creates a probe checker.
func NewChecker() *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Probe performs the single reachability check.
func (c *Checker) Probe(ctx context.Context, url string) Availability {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Offline
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Offline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Offline
	}
	return Available
}
