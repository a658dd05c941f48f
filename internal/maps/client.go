// Package maps resolves place names to coordinates through Nominatim and
// computes road routes through OpenRouteService.
package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/metrics"
)

var (
	// ErrLocationNotFound is returned when geocoding yields no match.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNoRoute is returned when the routing provider returns no route.
	ErrNoRoute = errors.New("no route found")

	// ErrMissingAPIKey is returned when routing is attempted without a key.
	ErrMissingAPIKey = errors.New("routing API key is not configured")
)

// Cache stores provider responses. CacheStore in internal/redis satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Options configures a Client.
type Options struct {
	NominatimURL string
	RoutingURL   string
	APIKey       string
	UserAgent    string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// Client talks to the mapping providers.
type Client struct {
	opts   Options
	http   *http.Client
	cache  Cache
	logger *zap.Logger
}

// NewClient creates a new Client. cache may be nil.
func NewClient(opts Options, cache Cache, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ridehail/1.0"
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		cache:  cache,
		logger: logger,
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Geocode returns the best match for address.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	address = strings.TrimSpace(address)
	key := "geocode:" + strings.ToLower(address)

	var cached domain.Coordinates
	if c.fromCache(ctx, key, &cached) {
		metrics.TrackMapsRequest("geocode", "ok", true, 0)
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.NominatimURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")

	var places []nominatimPlace
	if err := c.do(req, "geocode", &places); err != nil {
		return domain.Coordinates{}, err
	}
	if len(places) == 0 {
		return domain.Coordinates{}, ErrLocationNotFound
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return domain.Coordinates{}, fmt.Errorf("parse coordinates %q,%q: %w", places[0].Lat, places[0].Lon, errors.Join(errLat, errLng))
	}

	coords := domain.Coordinates{Lat: lat, Lng: lng}
	c.toCache(ctx, key, coords)
	return coords, nil
}

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// Route returns the driving distance in km and duration in minutes between
// two points.
func (c *Client) Route(ctx context.Context, from, to domain.Coordinates) (domain.Route, error) {
	if c.opts.APIKey == "" {
		return domain.Route{}, ErrMissingAPIKey
	}

	key := fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
	var cached domain.Route
	if c.fromCache(ctx, key, &cached) {
		metrics.TrackMapsRequest("route", "ok", true, 0)
		return cached, nil
	}

	// The provider expects [lng, lat] pairs.
	body, err := json.Marshal(directionsRequest{Coordinates: [][2]float64{
		{from.Lng, from.Lat},
		{to.Lng, to.Lat},
	}})
	if err != nil {
		return domain.Route{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.RoutingURL+"/v2/directions/driving-car", bytes.NewReader(body))
	if err != nil {
		return domain.Route{}, err
	}
	req.Header.Set("Authorization", c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var data directionsResponse
	if err := c.do(req, "route", &data); err != nil {
		return domain.Route{}, err
	}
	if len(data.Routes) == 0 {
		return domain.Route{}, ErrNoRoute
	}

	summary := data.Routes[0].Summary
	route := domain.Route{
		DistanceKm:  math.Round(summary.Distance/10) / 100,
		DurationMin: math.Round(summary.Duration / 60),
	}
	c.toCache(ctx, key, route)
	return route, nil
}

func (c *Client) do(req *http.Request, endpoint string, dest any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TrackMapsRequest(endpoint, "error", false, time.Since(start))
		c.logger.Warn("maps request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.TrackMapsRequest(endpoint, strconv.Itoa(resp.StatusCode), false, time.Since(start))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("maps provider error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("%s provider error (%d)", endpoint, resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fromCache(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, "maps:"+key, dest)
	if err != nil {
		c.logger.Warn("maps cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (c *Client) toCache(ctx context.Context, key string, value any) {
	if c.cache == nil || c.opts.CacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, "maps:"+key, value, c.opts.CacheTTL); err != nil {
		c.logger.Warn("maps cache write failed", zap.String("key", key), zap.Error(err))
	}
}
