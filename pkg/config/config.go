// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envListenAddr         = "SNOW_LISTEN_ADDR"
	envWeatherURL         = "SNOW_WEATHER_URL"
	envDirectionsURL      = "SNOW_DIRECTIONS_URL"
	envWeatherAPIKey      = "SNOW_WEATHER_API_KEY"
	envMapsAPIKey         = "SNOW_MAPS_API_KEY"
	envWeatherUnits       = "SNOW_WEATHER_UNITS"
	envRequestTimeout     = "SNOW_REQUEST_TIMEOUT"
	envLogLevel           = "SNOW_LOG_LEVEL"
	envServerReadTimeout  = "SNOW_SERVER_READ_TIMEOUT"
	envServerWriteTimeout = "SNOW_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout  = "SNOW_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown   = "SNOW_GRACEFUL_SHUTDOWN"

	defaultListenAddr         = "127.0.0.1:8000"
	defaultWeatherURL         = "https://api.openweathermap.org/data/2.5/weather"
	defaultDirectionsURL      = "https://maps.googleapis.com/maps/api/directions/json"
	defaultWeatherUnits       = "metric"
	defaultRequestTimeout     = 15 * time.Second
	defaultLogLevel           = "info"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// Config captures runtime settings for the proxy.
type Config struct {
	ListenAddr              string
	WeatherURL              *url.URL
	DirectionsURL           *url.URL
	WeatherAPIKey           string
	MapsAPIKey              string
	WeatherUnits            string
	RequestTimeout          time.Duration
	LogLevel                string
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and validates required
// values. A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	weatherKey := strings.TrimSpace(os.Getenv(envWeatherAPIKey))
	if weatherKey == "" {
		return Config{}, errors.New("SNOW_WEATHER_API_KEY is required")
	}

	mapsKey := strings.TrimSpace(os.Getenv(envMapsAPIKey))
	if mapsKey == "" {
		return Config{}, errors.New("SNOW_MAPS_API_KEY is required")
	}

	weatherURL, err := parseUpstreamURL(envWeatherURL, defaultWeatherURL)
	if err != nil {
		return Config{}, err
	}

	directionsURL, err := parseUpstreamURL(envDirectionsURL, defaultDirectionsURL)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:              getString(envListenAddr, defaultListenAddr),
		WeatherURL:              weatherURL,
		DirectionsURL:           directionsURL,
		WeatherAPIKey:           weatherKey,
		MapsAPIKey:              mapsKey,
		WeatherUnits:            getString(envWeatherUnits, defaultWeatherUnits),
		RequestTimeout:          getDuration(envRequestTimeout, defaultRequestTimeout),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
	}

	return cfg, nil
}

func parseUpstreamURL(key, fallback string) (*url.URL, error) {
	raw := getString(key, fallback)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%s must be absolute (scheme://host)", key)
	}
	return u, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
