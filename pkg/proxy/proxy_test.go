// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-core-stack/snow-route-proxy/pkg/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	weatherURL, err := url.Parse("https://weather.example.com/data/2.5/weather")
	if err != nil {
		t.Fatalf("parse weather url: %v", err)
	}
	directionsURL, err := url.Parse("https://maps.example.com/maps/api/directions/json")
	if err != nil {
		t.Fatalf("parse directions url: %v", err)
	}

	return config.Config{
		ListenAddr:              "127.0.0.1:0",
		WeatherURL:              weatherURL,
		DirectionsURL:           directionsURL,
		WeatherAPIKey:           "weather-key",
		MapsAPIKey:              "maps-key",
		WeatherUnits:            "metric",
		RequestTimeout:          time.Second,
		LogLevel:                "info",
		ServerReadTimeout:       time.Second,
		ServerWriteTimeout:      time.Second,
		ServerIdleTimeout:       time.Second,
		GracefulShutdownTimeout: time.Second,
	}
}

func newTestProxy(t *testing.T, rt roundTripperFunc) *Proxy {
	t.Helper()

	handler := New(testConfig(t))
	p, ok := handler.(*Proxy)
	if !ok {
		t.Fatalf("expected *Proxy, got %T", handler)
	}
	p.client.Transport = rt
	return p
}

func TestHomeReturnsStatusPayload(t *testing.T) {
	var outboundCalls int32

	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&outboundCalls, 1)
		return nil, errors.New("home must not call upstream")
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"message":"AI Snow Route Finder API is running"}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if atomic.LoadInt32(&outboundCalls) != 0 {
		t.Fatalf("expected no outbound calls, got %d", outboundCalls)
	}
}

func TestWeatherPassthrough(t *testing.T) {
	var (
		outboundCalls int32
		receivedURL   *url.URL
	)

	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&outboundCalls, 1)
		receivedURL = req.URL

		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(`{"main":{"temp":15}}`)),
		}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/weather/Paris", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"main":{"temp":15}}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if atomic.LoadInt32(&outboundCalls) != 1 {
		t.Fatalf("expected exactly one outbound call, got %d", outboundCalls)
	}

	if receivedURL.Host != "weather.example.com" {
		t.Fatalf("unexpected upstream host: %s", receivedURL.Host)
	}
	if receivedURL.Path != "/data/2.5/weather" {
		t.Fatalf("unexpected upstream path: %s", receivedURL.Path)
	}
	q := receivedURL.Query()
	if got := q.Get("q"); got != "Paris" {
		t.Fatalf("unexpected q param: %q", got)
	}
	if got := q.Get("appid"); got != "weather-key" {
		t.Fatalf("unexpected appid param: %q", got)
	}
	if got := q.Get("units"); got != "metric" {
		t.Fatalf("unexpected units param: %q", got)
	}
}

func TestWeatherUpstreamErrorPassthrough(t *testing.T) {
	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(`{"cod":"404","message":"city not found"}`)),
		}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/weather/Nowhereville", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected upstream 404 to pass through, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"cod":"404","message":"city not found"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestRoutesPassthrough(t *testing.T) {
	var (
		outboundCalls int32
		receivedURL   *url.URL
	)

	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&outboundCalls, 1)
		receivedURL = req.URL

		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(`{"routes":[]}`)),
		}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/routes?start=A&end=B", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"routes":[]}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if atomic.LoadInt32(&outboundCalls) != 1 {
		t.Fatalf("expected exactly one outbound call, got %d", outboundCalls)
	}

	if receivedURL.Host != "maps.example.com" {
		t.Fatalf("unexpected upstream host: %s", receivedURL.Host)
	}
	if receivedURL.Path != "/maps/api/directions/json" {
		t.Fatalf("unexpected upstream path: %s", receivedURL.Path)
	}
	q := receivedURL.Query()
	if got := q.Get("origin"); got != "A" {
		t.Fatalf("unexpected origin param: %q", got)
	}
	if got := q.Get("destination"); got != "B" {
		t.Fatalf("unexpected destination param: %q", got)
	}
	if got := q.Get("key"); got != "maps-key" {
		t.Fatalf("unexpected key param: %q", got)
	}
}

func TestRoutesMissingParamRejectedBeforeOutboundCall(t *testing.T) {
	var outboundCalls int32

	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&outboundCalls, 1)
		return nil, errors.New("rejected request must not call upstream")
	})

	for _, target := range []string{
		"http://proxy/routes?start=A",
		"http://proxy/routes?end=B",
		"http://proxy/routes",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		p.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "start and end") {
			t.Fatalf("%s: unexpected error body: %s", target, rec.Body.String())
		}
	}

	if atomic.LoadInt32(&outboundCalls) != 0 {
		t.Fatalf("expected no outbound calls, got %d", outboundCalls)
	}
}

func TestUpstreamTimeoutMapsToGatewayTimeout(t *testing.T) {
	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/weather/Paris", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
}

func TestTransportFailureMapsToBadGateway(t *testing.T) {
	p := newTestProxy(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	req := httptest.NewRequest(http.MethodGet, "http://proxy/routes?start=A&end=B", nil)
	rec := httptest.NewRecorder()

	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
