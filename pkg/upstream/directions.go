// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Directions queries a Google-Directions-compatible routing endpoint.
type Directions struct {
	base *url.URL
	key  string
	cli  *http.Client
}

// NewDirections constructs a directions client against the given base endpoint.
func NewDirections(cli *http.Client, base *url.URL, key string) *Directions {
	return &Directions{base: cloneURL(base), key: key, cli: cli}
}

// Route fetches route data between two locations and returns the raw upstream
// response for the proxy layer to relay.
func (d *Directions) Route(ctx context.Context, start, end string) (*http.Response, error) {
	// API: https://maps.googleapis.com/maps/api/directions/json?origin=A&destination=B&key=KEY
	q := url.Values{}
	q.Set("origin", start)
	q.Set("destination", end)
	q.Set("key", d.key)

	u := *d.base
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	resp, err := d.cli.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}
