package db

import (
	"context"
	"fmt"
)

// -----------------------------------------------------------------------------
// Saved List Methods
// -----------------------------------------------------------------------------

// SaveProperty adds a property to a user's saved list.
// It reports false when the property was already saved.
func (db *DB) SaveProperty(ctx context.Context, username string, propertyID int64) (bool, error) {
	if username == "" {
		return false, fmt.Errorf("username is required")
	}
	result, err := db.pool.Exec(ctx,
		`INSERT INTO saved_properties (username, property_id, saved_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (username, property_id) DO NOTHING`,
		username, propertyID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save property %d: %w", propertyID, err)
	}
	return result.RowsAffected() == 1, nil
}

// RemoveSavedProperty removes a property from a user's saved list.
// It reports false when the property was not on the list.
func (db *DB) RemoveSavedProperty(ctx context.Context, username string, propertyID int64) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM saved_properties WHERE username = $1 AND property_id = $2`,
		username, propertyID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove saved property %d: %w", propertyID, err)
	}
	return result.RowsAffected() > 0, nil
}

// ListSavedProperties returns a user's saved properties, most recently saved first.
func (db *DB) ListSavedProperties(ctx context.Context, username string) ([]SavedProperty, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+prefixed("p.", propertyColumns)+`, s.saved_at
		 FROM properties p
		 INNER JOIN saved_properties s ON p.id = s.property_id
		 WHERE s.username = $1
		 ORDER BY s.saved_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved properties: %w", err)
	}
	defer rows.Close()

	var saved []SavedProperty
	for rows.Next() {
		var item SavedProperty
		p, err := scanProperty(rows, &item.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved property: %w", err)
		}
		item.Property = *p
		saved = append(saved, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saved properties: %w", err)
	}
	return saved, nil
}
