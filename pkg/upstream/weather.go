// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Weather queries an OpenWeatherMap-compatible current-conditions endpoint.
// The API key and unit system ride along as query parameters on every call.
type Weather struct {
	base  *url.URL
	key   string
	units string
	cli   *http.Client
}

// NewWeather constructs a weather client against the given base endpoint.
func NewWeather(cli *http.Client, base *url.URL, key, units string) *Weather {
	return &Weather{base: cloneURL(base), key: key, units: units, cli: cli}
}

// CurrentByCity fetches current conditions for a city by name and returns the
// raw upstream response. The caller owns the response body, including for
// upstream error payloads such as "city not found".
func (w *Weather) CurrentByCity(ctx context.Context, city string) (*http.Response, error) {
	// API: https://api.openweathermap.org/data/2.5/weather?q=Paris&appid=KEY&units=metric
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", w.key)
	q.Set("units", w.units)

	u := *w.base
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := w.cli.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

// cloneURL makes a shallow copy of the provided URL pointer.
func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
