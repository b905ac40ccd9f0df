// Package geo resolves free-text charging locations to coordinates. Lookups
// go through a Redis cache first; misses fall through to a Nominatim search.
// Geocoding is best effort: any failure yields absent coordinates, never an
// error surfaced to an import.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	userAgent      = "evtrack/1.0"
	requestTimeout = 10 * time.Second
	cachePrefix    = "geocode:"
)

// Geocoder resolves location names against a Nominatim endpoint.
type Geocoder struct {
	baseURL string
	country string
	ttl     time.Duration
	client  *http.Client
	cache   *redis.Client
	logger  *zap.Logger
}

// NewGeocoder builds a cached geocoder. cache may be nil, in which case every
// lookup hits the remote service.
func NewGeocoder(baseURL, country string, ttl time.Duration, cache *redis.Client, logger *zap.Logger) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		ttl:     ttl,
		client:  &http.Client{Timeout: requestTimeout},
		cache:   cache,
		logger:  logger,
	}
}

// Locate returns coordinates for a location name, or nil when the name is
// blank, a placeholder, or cannot be resolved.
func (g *Geocoder) Locate(ctx context.Context, location string) *orb.Point {
	location = strings.TrimSpace(location)
	switch strings.ToLower(location) {
	case "", "unknown", "n/a":
		return nil
	}

	if point := g.cached(ctx, location); point != nil {
		return point
	}

	point, err := g.query(ctx, location)
	if err != nil {
		g.logger.Warn("geocoding failed", zap.String("location", location), zap.Error(err))
		return nil
	}
	if point != nil {
		g.store(ctx, location, *point)
	}
	return point
}

func (g *Geocoder) cached(ctx context.Context, location string) *orb.Point {
	if g.cache == nil {
		return nil
	}
	raw, err := g.cache.Get(ctx, cachePrefix+strings.ToLower(location)).Result()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warn("geocode cache read failed", zap.Error(err))
		}
		return nil
	}
	var point orb.Point
	if err := json.Unmarshal([]byte(raw), &point); err != nil {
		return nil
	}
	return &point
}

func (g *Geocoder) store(ctx context.Context, location string, point orb.Point) {
	if g.cache == nil {
		return
	}
	raw, err := json.Marshal(point)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, cachePrefix+strings.ToLower(location), raw, g.ttl).Err(); err != nil {
		g.logger.Warn("geocode cache write failed", zap.Error(err))
	}
}

func (g *Geocoder) query(ctx context.Context, location string) (*orb.Point, error) {
	search := location
	if g.country != "" {
		search = fmt.Sprintf("%s, %s", location, g.country)
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(search))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, err
	}
	point := orb.Point{lon, lat}
	return &point, nil
}
