// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package upstream holds the credentialed clients for the third-party weather
// and directions services. Each client issues a single outbound GET and hands
// the raw response back for the proxy layer to relay verbatim.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the shared outbound client with connection pooling
// suitable for repeated calls against the same two upstream hosts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// StatusError wraps a round-trip failure with the HTTP status the proxy
// should emit downstream.
type StatusError struct {
	Status int   // Status preserves the HTTP status to emit downstream.
	Err    error // Err retains the original cause for logging.
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Status, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As checks.
func (e *StatusError) Unwrap() error {
	return e.Err
}

// classify maps transport-level failures to a downstream status: gateway
// timeout for deadlines and network timeouts, bad gateway otherwise.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &StatusError{Status: http.StatusGatewayTimeout, Err: err}
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &StatusError{Status: http.StatusGatewayTimeout, Err: err}
		}
	}
	return &StatusError{Status: http.StatusBadGateway, Err: err}
}
