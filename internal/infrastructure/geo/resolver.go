// Package geo resolves client IPs to coarse locations via an external
// lookup service. Lookups are bounded by a timeout and always degrade to a
// usable fallback value; a geo failure never propagates as an error.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/metrics"
	"github.com/beaconview/beaconview-go/pkg/config"
)

// localGeo is the fixed placeholder for loopback and private addresses,
// returned without calling the lookup service.
var localGeo = &visitor.Geo{Country: "Local", City: "Local"}

// unknownGeo is the degraded fallback when the lookup fails or times out.
var unknownGeo = &visitor.Geo{Country: "Unknown"}

// Resolver performs cached IP geolocation lookups.
type Resolver struct {
	client  *http.Client
	baseURL string
	cache   map[string]*visitor.Geo
	mu      sync.RWMutex
	logger  *logging.ChanneledLogger
}

// NewResolver creates a geolocation resolver using the configured lookup
// endpoint and timeout.
func NewResolver(logger *logging.ChanneledLogger) *Resolver {
	return &Resolver{
		client:  &http.Client{Timeout: config.GeoLookupTimeout},
		baseURL: config.GeoAPIURL,
		cache:   make(map[string]*visitor.Geo),
		logger:  logger,
	}
}

// lookupResponse matches the ip-api.com JSON shape.
type lookupResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Resolve returns the location for a client IP. Results are cached by the
// cleaned IP string for the process lifetime; geo is resolved once per
// visitor at first sighting, so the cache stays small.
func (r *Resolver) Resolve(ctx context.Context, clientIP string) *visitor.Geo {
	ip := CleanIP(clientIP)

	if isLocal(ip) {
		return localGeo
	}

	r.mu.RLock()
	cached, hit := r.cache[ip]
	r.mu.RUnlock()
	if hit {
		return cached
	}

	resolved := r.lookup(ctx, ip)

	r.mu.Lock()
	r.cache[ip] = resolved
	r.mu.Unlock()

	return resolved
}

func (r *Resolver) lookup(ctx context.Context, ip string) *visitor.Geo {
	ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+ip, nil)
	if err != nil {
		return unknownGeo
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		metrics.GeoLookupFailuresTotal.Inc()
		if r.logger != nil {
			r.logger.Geo().Warn("Geolocation lookup failed", "ip", ip, "error", err.Error(), "duration", time.Since(start))
		}
		return unknownGeo
	}
	defer resp.Body.Close()

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "success" {
		metrics.GeoLookupFailuresTotal.Inc()
		if r.logger != nil {
			r.logger.Geo().Warn("Geolocation lookup returned unusable response", "ip", ip, "status", body.Status)
		}
		return unknownGeo
	}

	if r.logger != nil {
		r.logger.Geo().Debug("Geolocation resolved", "ip", ip, "country", body.Country, "duration", time.Since(start))
	}
	return &visitor.Geo{
		Country: body.Country,
		Region:  body.RegionName,
		City:    body.City,
	}
}

// CleanIP strips port and IPv6-mapped prefixes from a client address.
func CleanIP(addr string) string {
	ip := strings.TrimSpace(addr)
	ip = strings.TrimPrefix(ip, "::ffff:")
	// Strip a port from host:port forms, leaving bare IPv6 alone.
	if idx := strings.LastIndex(ip, ":"); idx != -1 && strings.Count(ip, ":") == 1 {
		ip = ip[:idx]
	}
	return ip
}

// isLocal reports addresses the lookup service could never place: loopback,
// RFC 1918 private ranges, and link-local. Unparseable values fall through
// to the lookup, which degrades to Unknown on its own.
func isLocal(ip string) bool {
	if ip == "" || ip == "localhost" {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
