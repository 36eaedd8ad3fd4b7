package db

import (
	"time"

	"github.com/google/uuid"
)

// PropertyInput holds the column values written by an upsert.
// Translated columns carry the original text when no translation was available.
type PropertyInput struct {
	Source            string
	Title             string
	TitleEN           string
	Description       string
	DescriptionEN     string
	Price             float64
	SizeSqm           float64
	Lat               float64
	Lon               float64
	CoordsApproximate bool
	URL               string
	Photos            string
	PropertyType      string
	SaleChannel       string
	Location          string
	LocationEN        string
	Contact           string
	ContactEN         string
	Bank              string
	BankEN            string
	Strategy          string
	TotalRating       float64
	TransportScore    int
	FoodScore         int
	SafetyScore       int
	LivingRating      float64
	RentEstimate      *int
	InvestmentRating  float64
	Rooms             *float64
	Bedrooms          *float64
	Bathrooms         *float64
}

// Property is a persisted listing row.
type Property struct {
	ID                int64     `json:"id"`
	Source            string    `json:"source"`
	Title             *string   `json:"title,omitempty"`
	TitleEN           *string   `json:"title_en,omitempty"`
	Description       *string   `json:"description,omitempty"`
	DescriptionEN     *string   `json:"description_en,omitempty"`
	Price             *float64  `json:"price,omitempty"`
	SizeSqm           *float64  `json:"size_sqm,omitempty"`
	Lat               *float64  `json:"lat,omitempty"`
	Lon               *float64  `json:"lon,omitempty"`
	CoordsApproximate bool      `json:"coords_approximate"`
	URL               string    `json:"url"`
	Photos            *string   `json:"photos,omitempty"`
	PropertyType      *string   `json:"property_type,omitempty"`
	SaleChannel       *string   `json:"sale_channel,omitempty"`
	Location          *string   `json:"location,omitempty"`
	LocationEN        *string   `json:"location_en,omitempty"`
	Contact           *string   `json:"contact,omitempty"`
	ContactEN         *string   `json:"contact_en,omitempty"`
	Bank              *string   `json:"bank,omitempty"`
	BankEN            *string   `json:"bank_en,omitempty"`
	Strategy          *string   `json:"strategy,omitempty"`
	TotalRating       *float64  `json:"total_rating,omitempty"`
	TransportScore    *int      `json:"transport_score,omitempty"`
	FoodScore         *int      `json:"food_score,omitempty"`
	SafetyScore       *int      `json:"safety_score,omitempty"`
	LivingRating      *float64  `json:"living_rating,omitempty"`
	RentEstimate      *int      `json:"rent_estimate,omitempty"`
	InvestmentRating  *float64  `json:"investment_rating,omitempty"`
	Rooms             *float64  `json:"rooms,omitempty"`
	Bedrooms          *float64  `json:"bedrooms,omitempty"`
	Bathrooms         *float64  `json:"bathrooms,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// SavedProperty is a property on a user's saved list.
type SavedProperty struct {
	Property
	SavedAt time.Time `json:"saved_at"`
}

// IngestRun records one scrape invocation.
type IngestRun struct {
	ID                uuid.UUID  `json:"id"`
	Command           string     `json:"command"`
	Status            string     `json:"status"`
	Processed         int        `json:"processed"`
	Inserted          int        `json:"inserted"`
	Updated           int        `json:"updated"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
	MissingURL        int        `json:"missing_url"`
	Batches           int        `json:"batches"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}
