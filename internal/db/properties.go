package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Property Methods
// -----------------------------------------------------------------------------

// upsertPropertySQL merges on url. Source, size and coordinates keep their first-seen values.
const upsertPropertySQL = `INSERT INTO properties
	(source, title, title_en, description, description_en, price, size_sqm, lat, lon,
	 coords_approximate, url, photos, property_type, sale_channel, location, location_en,
	 contact, contact_en, bank, bank_en, strategy, total_rating, transport_score, food_score,
	 safety_score, living_rating, rent_estimate, investment_rating, rooms, bedrooms, bathrooms,
	 last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
	        $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, NOW())
	ON CONFLICT (url) DO UPDATE SET
	    price = EXCLUDED.price,
	    title = EXCLUDED.title,
	    title_en = EXCLUDED.title_en,
	    description = EXCLUDED.description,
	    description_en = EXCLUDED.description_en,
	    photos = EXCLUDED.photos,
	    property_type = EXCLUDED.property_type,
	    sale_channel = EXCLUDED.sale_channel,
	    location = EXCLUDED.location,
	    location_en = EXCLUDED.location_en,
	    contact = EXCLUDED.contact,
	    contact_en = EXCLUDED.contact_en,
	    bank = EXCLUDED.bank,
	    bank_en = EXCLUDED.bank_en,
	    strategy = EXCLUDED.strategy,
	    total_rating = EXCLUDED.total_rating,
	    transport_score = EXCLUDED.transport_score,
	    food_score = EXCLUDED.food_score,
	    safety_score = EXCLUDED.safety_score,
	    living_rating = EXCLUDED.living_rating,
	    rent_estimate = EXCLUDED.rent_estimate,
	    investment_rating = EXCLUDED.investment_rating,
	    rooms = EXCLUDED.rooms,
	    bedrooms = EXCLUDED.bedrooms,
	    bathrooms = EXCLUDED.bathrooms,
	    last_updated = NOW()
	RETURNING (xmax = 0) AS inserted`

const propertyColumns = `id, source, title, title_en, description, description_en, price, size_sqm,
	lat, lon, coords_approximate, url, photos, property_type, sale_channel, location, location_en,
	contact, contact_en, bank, bank_en, strategy, total_rating, transport_score, food_score,
	safety_score, living_rating, rent_estimate, investment_rating, rooms, bedrooms, bathrooms,
	last_updated`

// Batch is an open transaction that upserts properties until it is committed or rolled back.
type Batch struct {
	tx pgx.Tx
}

// Begin opens a new upsert batch.
func (db *DB) Begin(ctx context.Context) (*Batch, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// UpsertProperty inserts or merges a property keyed on url.
// It reports true when the row was freshly inserted and false when an existing row was updated.
func (b *Batch) UpsertProperty(ctx context.Context, p *PropertyInput) (bool, error) {
	if p.URL == "" {
		return false, fmt.Errorf("property url is required")
	}

	var inserted bool
	err := b.tx.QueryRow(ctx, upsertPropertySQL,
		p.Source, p.Title, p.TitleEN, p.Description, p.DescriptionEN, p.Price, p.SizeSqm,
		p.Lat, p.Lon, p.CoordsApproximate, p.URL, p.Photos, p.PropertyType, p.SaleChannel,
		p.Location, p.LocationEN, p.Contact, p.ContactEN, p.Bank, p.BankEN, p.Strategy,
		p.TotalRating, p.TransportScore, p.FoodScore, p.SafetyScore, p.LivingRating,
		p.RentEstimate, p.InvestmentRating, p.Rooms, p.Bedrooms, p.Bathrooms,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert property %s: %w", p.URL, err)
	}
	return inserted, nil
}

// Commit makes every upsert in the batch durable.
func (b *Batch) Commit(ctx context.Context) error {
	if err := b.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Rolling back a finished batch is a no-op.
func (b *Batch) Rollback(ctx context.Context) error {
	if err := b.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back batch: %w", err)
	}
	return nil
}

// GetPropertyByID retrieves a property by its primary key. It returns nil when none exists.
func (db *DB) GetPropertyByID(ctx context.Context, id int64) (*Property, error) {
	p, err := scanProperty(db.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// GetPropertyByURL retrieves a property by its canonical url. It returns nil when none exists.
func (db *DB) GetPropertyByURL(ctx context.Context, url string) (*Property, error) {
	p, err := scanProperty(db.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE url = $1`, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// CountProperties returns the number of persisted properties.
func (db *DB) CountProperties(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner, extra ...any) (*Property, error) {
	var p Property
	dest := []any{
		&p.ID, &p.Source, &p.Title, &p.TitleEN, &p.Description, &p.DescriptionEN, &p.Price,
		&p.SizeSqm, &p.Lat, &p.Lon, &p.CoordsApproximate, &p.URL, &p.Photos, &p.PropertyType,
		&p.SaleChannel, &p.Location, &p.LocationEN, &p.Contact, &p.ContactEN, &p.Bank, &p.BankEN,
		&p.Strategy, &p.TotalRating, &p.TransportScore, &p.FoodScore, &p.SafetyScore,
		&p.LivingRating, &p.RentEstimate, &p.InvestmentRating, &p.Rooms, &p.Bedrooms,
		&p.Bathrooms, &p.LastUpdated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// prefixed qualifies every column in a comma separated list with prefix.
func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = prefix + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
