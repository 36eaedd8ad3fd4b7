// Package scoring derives the investment metrics attached to every listing.
package scoring

import (
	"context"
	"math"

	"github.com/jonathan/npa-sniper/internal/types"
)

// Price-per-square-metre thresholds separating the strategies.
const (
	BigFlipThreshold  = 40000.0
	CashFlowThreshold = 80000.0
)

const baseScore = 5.0

// Amenities holds the neighbourhood sub-scores for a coordinate, each on a 0-10 scale.
type Amenities struct {
	Transport int `json:"transport"`
	Food      int `json:"food"`
	Safety    int `json:"safety"`
}

// AmenityScorer supplies neighbourhood sub-scores for a coordinate.
type AmenityScorer interface {
	Amenities(ctx context.Context, lat, lon float64) Amenities
}

// Score computes the strategy and rating for a listing.
// A non-positive size gives a price per square metre of zero.
func Score(ctx context.Context, scorer AmenityScorer, price, size, lat, lon float64) types.Metrics {
	pricePerSqm := 0.0
	if size > 0 {
		pricePerSqm = price / size
	}

	score := baseScore
	strategy := types.StrategyHold
	switch {
	case pricePerSqm < BigFlipThreshold:
		strategy = types.StrategyBigFlip
		score += 2
	case pricePerSqm < CashFlowThreshold:
		strategy = types.StrategyCashFlow
		score++
	}

	var a Amenities
	if scorer != nil {
		a = scorer.Amenities(ctx, lat, lon)
	}

	rating := math.Min(10, score+float64(a.Transport)/10+float64(a.Food)/10)
	return types.Metrics{
		Strategy:  strategy,
		Rating:    math.Round(rating*10) / 10,
		Transport: a.Transport,
		Food:      a.Food,
		Safety:    a.Safety,
	}
}
