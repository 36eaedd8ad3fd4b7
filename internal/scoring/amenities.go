package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonathan/npa-sniper/internal/logging"
)

// Placeholder ranges, inclusive.
const (
	minTransport = 4
	minFood      = 4
	minSafety    = 6
	maxSubScore  = 10
)

// RandomPlaceholderScorer draws sub-scores uniformly from fixed ranges.
// It stands in for a real amenity-proximity source.
type RandomPlaceholderScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPlaceholderScorer creates a placeholder scorer. A zero seed seeds from the clock.
func NewRandomPlaceholderScorer(seed int64) *RandomPlaceholderScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPlaceholderScorer{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

// Amenities implements AmenityScorer.
func (s *RandomPlaceholderScorer) Amenities(_ context.Context, _, _ float64) Amenities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Amenities{
		Transport: s.between(minTransport, maxSubScore),
		Food:      s.between(minFood, maxSubScore),
		Safety:    s.between(minSafety, maxSubScore),
	}
}

func (s *RandomPlaceholderScorer) between(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// FixedScorer returns the same sub-scores for every coordinate.
type FixedScorer Amenities

// Amenities implements AmenityScorer.
func (f FixedScorer) Amenities(_ context.Context, _, _ float64) Amenities {
	return Amenities(f)
}

// Poster sends a JSON body with retries. *fetch.Client implements it.
type Poster interface {
	PostWithRetry(ctx context.Context, endpoint string, payload any, label string, page int) ([]byte, error)
}

type lookupRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoLookupScorer asks an amenity service for sub-scores and falls back when it fails.
type GeoLookupScorer struct {
	poster   Poster
	endpoint string
	fallback AmenityScorer
	logger   logging.Logger
}

// NewGeoLookupScorer creates a lookup scorer. A nil fallback yields zero sub-scores on failure.
func NewGeoLookupScorer(poster Poster, endpoint string, fallback AmenityScorer, logger logging.Logger) *GeoLookupScorer {
	if fallback == nil {
		fallback = FixedScorer{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GeoLookupScorer{poster: poster, endpoint: endpoint, fallback: fallback, logger: logger}
}

// Amenities implements AmenityScorer.
func (g *GeoLookupScorer) Amenities(ctx context.Context, lat, lon float64) Amenities {
	a, err := g.lookup(ctx, lat, lon)
	if err != nil {
		g.logger.Warn("amenity lookup failed, using fallback",
			logging.Float64("lat", lat),
			logging.Float64("lon", lon),
			logging.Error(err))
		return g.fallback.Amenities(ctx, lat, lon)
	}
	return a
}

func (g *GeoLookupScorer) lookup(ctx context.Context, lat, lon float64) (Amenities, error) {
	body, err := g.poster.PostWithRetry(ctx, g.endpoint, lookupRequest{Lat: lat, Lon: lon}, "amenities", 0)
	if err != nil {
		return Amenities{}, err
	}
	var a Amenities
	if err := json.Unmarshal(body, &a); err != nil {
		return Amenities{}, fmt.Errorf("failed to decode amenity response: %w", err)
	}
	return Amenities{
		Transport: clamp(a.Transport),
		Food:      clamp(a.Food),
		Safety:    clamp(a.Safety),
	}, nil
}

func clamp(v int) int {
	return min(maxSubScore, max(0, v))
}
