// Package types provides the data shapes shared by the feed, normalizer, planner and storage stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Sale channels used by the feeds.
const (
	SaleChannelStandard = "standard"
	SaleChannelAuction  = "auction"
)

// Investment strategies assigned by the scoring function.
const (
	StrategyBigFlip  = "Big Flip"
	StrategyCashFlow = "Cash Flow"
	StrategyHold     = "Hold"
)

// Metrics is the derived score block attached to every listing.
type Metrics struct {
	Strategy  string  `json:"strategy"`
	Rating    float64 `json:"rating"`
	Transport int     `json:"transport"`
	Food      int     `json:"food"`
	Safety    int     `json:"safety"`
}

// Listing is the canonical record produced by the normalizer.
// URL is the natural identity: two listings with the same URL are the same asset.
type Listing struct {
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Price        float64  `json:"price"`
	Size         float64  `json:"size"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	URL          string   `json:"url"`
	Location     string   `json:"location"`
	Description  string   `json:"description,omitempty"`
	Contact      string   `json:"contact,omitempty"`
	Bank         string   `json:"bank"`
	Images       []string `json:"images"`
	Metrics      Metrics  `json:"metrics"`
	PropertyType string   `json:"property_type"`
	SaleChannel  string   `json:"sale_channel"`
	Bedrooms     *float64 `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	Rooms        *float64 `json:"rooms,omitempty"`

	// CoordsApproximate is set when Lat/Lon were synthesized rather than read from the feed.
	CoordsApproximate bool `json:"coords_approximate"`
}
