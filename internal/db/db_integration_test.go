//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/npa-sniper/internal/types"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema
func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

// legacyPropertiesSQL is the properties table as older scrapers created it.
const legacyPropertiesSQL = `CREATE TABLE properties (
    id           SERIAL PRIMARY KEY,
    source       TEXT NOT NULL,
    title        TEXT,
    description  TEXT,
    price        DOUBLE PRECISION,
    size_sqm     DOUBLE PRECISION,
    lat          DOUBLE PRECISION,
    lon          DOUBLE PRECISION,
    url          TEXT NOT NULL UNIQUE,
    location     TEXT
)`

// setupLegacySchema connects with search_path pointed at a fresh schema holding a legacy properties table.
func setupLegacySchema(t *testing.T) *DB {
	base := setupTestDB(t)
	t.Cleanup(base.Close)
	ctx := context.Background()

	schema := "legacy_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	_, err := base.pool.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = base.pool.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	dbURL := os.Getenv("TEST_DATABASE_URL")
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	db, err := Connect(ctx, dbURL+sep+"search_path="+schema)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.pool.Exec(ctx, legacyPropertiesSQL)
	require.NoError(t, err)
	return db
}

func TestMigrate_UpgradesLegacyProperties_Integration(t *testing.T) {
	db := setupLegacySchema(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migration is repeatable")

	url := "https://www.bam.co.th/asset/" + uuid.New().String()
	input := testProperty(url, 2_000_000)
	input.CoordsApproximate = true

	batch, err := db.Begin(ctx)
	require.NoError(t, err)
	inserted, err := batch.UpsertProperty(ctx, input)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, batch.Commit(ctx))

	count, err := db.CountProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	prop, err := db.GetPropertyByURL(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, prop)
	assert.True(t, prop.CoordsApproximate)
	require.NotNil(t, prop.RentEstimate)
	assert.Equal(t, 8000, *prop.RentEstimate)
}

func testProperty(url string, price float64) *PropertyInput {
	rent := int(price * 0.004)
	return &PropertyInput{
		Source:         "BAM",
		Title:          "คอนโด",
		TitleEN:        "Condo",
		Price:          price,
		SizeSqm:        35,
		Lat:            13.75,
		Lon:            100.55,
		URL:            url,
		Photos:         "https://example.com/a.jpg,https://example.com/b.jpg",
		PropertyType:   "Condo",
		SaleChannel:    types.SaleChannelStandard,
		Location:       "Bangkok",
		LocationEN:     "Bangkok",
		Strategy:       types.StrategyCashFlow,
		TotalRating:    7.5,
		RentEstimate:   &rent,
		LivingRating:   7.5,
		TransportScore: 8,
	}
}

func TestUpsertProperty_Idempotent_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	url := "https://www.bam.co.th/asset/" + uuid.New().String()

	batch, err := db.Begin(ctx)
	require.NoError(t, err)
	inserted, err := batch.UpsertProperty(ctx, testProperty(url, 1_000_000))
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, batch.Commit(ctx))

	changed := testProperty(url, 900_000)
	changed.SizeSqm = 99
	batch, err = db.Begin(ctx)
	require.NoError(t, err)
	inserted, err = batch.UpsertProperty(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, batch.Commit(ctx))

	p, err := db.GetPropertyByURL(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 900_000.0, *p.Price)
	assert.Equal(t, 35.0, *p.SizeSqm, "size keeps its first-seen value")
	assert.Equal(t, 3600, *p.RentEstimate)

	byID, err := db.GetPropertyByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, url, byID.URL)
}

func TestBatchRollback_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	url := "https://www.bam.co.th/asset/" + uuid.New().String()
	batch, err := db.Begin(ctx)
	require.NoError(t, err)
	_, err = batch.UpsertProperty(ctx, testProperty(url, 1))
	require.NoError(t, err)
	require.NoError(t, batch.Rollback(ctx))
	require.NoError(t, batch.Rollback(ctx))

	p, err := db.GetPropertyByURL(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetPropertyByID_NotFound_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p, err := db.GetPropertyByID(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSnapshots_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	category := "Test " + uuid.New().String()
	older := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	newer := older.Add(30 * time.Minute)

	require.NoError(t, db.InsertSnapshots(ctx, []types.FeedSnapshot{
		{FeedType: types.FeedRegular, Category: category, TotalRecords: 100, PageCount: 9, CheckedAt: older},
		{FeedType: types.FeedRegular, Category: category, TotalRecords: 110, PageCount: 10, CheckedAt: newer},
	}))
	require.NoError(t, db.InsertSnapshots(ctx, nil))

	latest, err := db.LatestSnapshots(ctx)
	require.NoError(t, err)
	got, ok := latest[types.SnapshotKey{FeedType: types.FeedRegular, Category: category}]
	require.True(t, ok)
	assert.Equal(t, 110, got.TotalRecords)
	assert.Equal(t, 10, got.PageCount)
	assert.True(t, newer.Equal(got.CheckedAt))
}

func TestSavedProperties_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := "user-" + uuid.New().String()
	var ids []int64
	for range 2 {
		url := "https://www.bam.co.th/asset/" + uuid.New().String()
		batch, err := db.Begin(ctx)
		require.NoError(t, err)
		_, err = batch.UpsertProperty(ctx, testProperty(url, 500_000))
		require.NoError(t, err)
		require.NoError(t, batch.Commit(ctx))
		p, err := db.GetPropertyByURL(ctx, url)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	added, err := db.SaveProperty(ctx, user, ids[0])
	require.NoError(t, err)
	assert.True(t, added)
	added, err = db.SaveProperty(ctx, user, ids[0])
	require.NoError(t, err)
	assert.False(t, added)

	time.Sleep(10 * time.Millisecond)
	_, err = db.SaveProperty(ctx, user, ids[1])
	require.NoError(t, err)

	saved, err := db.ListSavedProperties(ctx, user)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, ids[1], saved[0].ID, "most recently saved first")

	removed, err := db.RemoveSavedProperty(ctx, user, ids[0])
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = db.RemoveSavedProperty(ctx, user, ids[0])
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIngestRuns_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	id, err := db.CreateRun(ctx, "scrape")
	require.NoError(t, err)

	summary := types.RunSummary{Processed: 3, Inserted: 2, Updated: 1, Batches: 1, Status: types.RunStatusCompleted}
	require.NoError(t, db.CompleteRun(ctx, id, summary, nil))

	runs, err := db.ListRuns(ctx, 50)
	require.NoError(t, err)
	var found *IngestRun
	for i := range runs {
		if runs[i].ID == id {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "completed", found.Status)
	assert.Equal(t, 2, found.Inserted)
	assert.NotNil(t, found.CompletedAt)
	assert.Nil(t, found.ErrorMessage)

	err = db.CompleteRun(ctx, uuid.New(), summary, errors.New("boom"))
	assert.Error(t, err)
}
