// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/snow-route-proxy/pkg/config"
	"github.com/go-core-stack/snow-route-proxy/pkg/upstream"
)

// homePayload is the fixed status body served on the root route.
var homePayload = []byte(`{"message":"AI Snow Route Finder API is running"}`)

// hopHeaders lists standard hop-by-hop headers that must be stripped from an
// upstream response before it is relayed downstream.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Proxy-Connection":    {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// Proxy routes inbound requests to the weather and directions upstreams and
// relays their responses without inspecting or reshaping the payloads.
type Proxy struct {
	// client performs outbound HTTP requests; shared by both upstream clients.
	client *http.Client
	// weather fetches current conditions by city name.
	weather *upstream.Weather
	// directions fetches route data between two locations.
	directions *upstream.Directions
	// logger emits structured logs for observability.
	logger zerolog.Logger
	// router dispatches the three inbound routes.
	router chi.Router
}

// New constructs the Proxy with a pooled outbound client and the two
// credentialed upstream clients built from the runtime configuration.
func New(cfg config.Config) http.Handler {
	client := upstream.NewHTTPClient(cfg.RequestTimeout)

	p := &Proxy{
		client:     client,
		weather:    upstream.NewWeather(client, cfg.WeatherURL, cfg.WeatherAPIKey, cfg.WeatherUnits),
		directions: upstream.NewDirections(client, cfg.DirectionsURL, cfg.MapsAPIKey),
		logger:     log.With().Str("component", "proxy").Logger(),
	}

	r := chi.NewRouter()
	r.Use(p.logRequests)
	r.Get("/", p.handleHome)
	r.Get("/weather/{city}", p.handleWeather)
	r.Get("/routes", p.handleRoutes)
	p.router = r

	return p
}

// ServeHTTP dispatches to the route handlers.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// handleHome serves the static status payload with no upstream involvement.
func (p *Proxy) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(homePayload); err != nil {
		p.logger.Error().Err(err).Msg("write status payload failed")
	}
}

// handleWeather relays current conditions for the city named in the path.
func (p *Proxy) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	resp, err := p.weather.CurrentByCity(r.Context(), city)
	if err != nil {
		p.replyUpstreamFailure(w, err, "weather")
		return
	}
	p.relay(w, resp)
}

// handleRoutes relays route data between the start and end locations. Both
// query parameters are required; a missing one is rejected before any
// outbound request is constructed.
func (p *Proxy) handleRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := q.Get("start")
	end := q.Get("end")
	if start == "" || end == "" {
		p.replyBadRequest(w, "start and end query parameters are required")
		return
	}

	resp, err := p.directions.Route(r.Context(), start, end)
	if err != nil {
		p.replyUpstreamFailure(w, err, "directions")
		return
	}
	p.relay(w, resp)
}

// relay streams the upstream response downstream verbatim: same status, same
// body, headers minus hop-by-hop entries. Upstream error payloads pass
// through untouched.
func (p *Proxy) relay(w http.ResponseWriter, resp *http.Response) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Error().
				Err(closeErr).
				Msg("close upstream response body failed")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		p.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("upstream returned error; relaying as-is")
	}

	cleanHopHeaders(resp.Header)
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if _, copyErr := io.Copy(w, resp.Body); copyErr != nil {
		p.logger.Error().
			Err(copyErr).
			Msg("stream response failed")
	}
}

// replyUpstreamFailure maps a transport-level failure to an error status:
// gateway timeout for deadlines, bad gateway otherwise.
func (p *Proxy) replyUpstreamFailure(w http.ResponseWriter, err error, which string) {
	status := http.StatusBadGateway
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.Status
	}
	http.Error(w, http.StatusText(status), status)
	p.logger.Error().
		Err(err).
		Str("upstream", which).
		Int("status", status).
		Msg("upstream request failed")
}

// replyBadRequest rejects a request with a small JSON error body.
func (p *Proxy) replyBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		p.logger.Error().Err(err).Msg("write error payload failed")
	}
}

// logRequests emits one structured log line per request with the final
// status and duration.
func (p *Proxy) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		p.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

// cleanHopHeaders removes hop-by-hop headers that should not be relayed.
func cleanHopHeaders(h http.Header) {
	for k := range hopHeaders {
		h.Del(k)
	}
}

// copyHeaders appends all headers from src into dst.
func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
