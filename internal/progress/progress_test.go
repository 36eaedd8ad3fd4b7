package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/npa-sniper/internal/feed"
)

func TestTracker_LoadMissingFile(t *testing.T) {
	tracker := NewTracker(filepath.Join(t.TempDir(), "absent.json"), nil)
	state := tracker.Load()
	assert.Empty(t, state.Regular)
	assert.Equal(t, 0, state.Auction.Page)
	assert.False(t, tracker.Exists())
}

func TestTracker_LoadCorruptFile(t *testing.T) {
	tests := map[string]string{
		"not json":       `{"regular": `,
		"wrong shape":    `{"regular": [1, 2, 3]}`,
		"root is string": `"hello"`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "progress.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			state := NewTracker(path, nil).Load()
			assert.Empty(t, state.Regular)
			assert.Equal(t, 0, state.Auction.Page)
		})
	}
}

func TestTracker_LoadCoercesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	content := `{"regular": {"Condos": "4", "Townhouses": 2.9, "Vacant Land": -3, "Single Houses": "x"}, "auction": {"page": 11}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	state := NewTracker(path, nil).Load()
	assert.Equal(t, 4, state.Regular["Condos"])
	assert.Equal(t, 2, state.Regular["Townhouses"])
	assert.Equal(t, 0, state.Regular["Vacant Land"])
	assert.Equal(t, 0, state.Regular["Single Houses"])
	assert.Equal(t, 11, state.Auction.Page)
}

func TestTracker_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "progress.json")
	tracker := NewTracker(path, nil)

	state := NewState()
	state.SetCursor(feed.RegularCategories[3], 5)
	state.SetCursor(feed.AuctionCategory, 2)
	require.NoError(t, tracker.Save(state))
	assert.True(t, tracker.Exists())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, map[string]any{"Condos": 5.0}, onDisk["regular"])
	assert.Equal(t, map[string]any{"page": 2.0}, onDisk["auction"])

	loaded := tracker.Load()
	assert.Equal(t, 5, loaded.Cursor(feed.RegularCategories[3]))
	assert.Equal(t, 2, loaded.Cursor(feed.AuctionCategory))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestTracker_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	tracker := NewTracker(path, nil)
	require.NoError(t, tracker.Save(NewState()))
	require.NoError(t, tracker.Reset())
	assert.False(t, tracker.Exists())
	require.NoError(t, tracker.Reset(), "resetting twice is fine")
}

func TestTracker_EmptyPathDisablesPersistence(t *testing.T) {
	tracker := NewTracker("", nil)
	require.NoError(t, tracker.Save(NewState()))
	assert.False(t, tracker.Exists())
	assert.NotNil(t, tracker.Load().Regular)
}

func TestWindow_Bound(t *testing.T) {
	w := NewWindow(2)
	completed := 0
	for range 3 {
		if !w.AllowNext() {
			break
		}
		w.MarkComplete()
		completed++
	}
	assert.Equal(t, 2, completed)
	assert.False(t, w.AllowNext())
	assert.True(t, w.Exhausted())
	assert.Equal(t, 0, w.Remaining())
}

func TestWindow_Unbounded(t *testing.T) {
	for _, target := range []int{0, -4} {
		w := NewWindow(target)
		for range 100 {
			require.True(t, w.AllowNext())
			w.MarkComplete()
		}
		assert.False(t, w.Exhausted())
		assert.Equal(t, -1, w.Remaining())
		assert.Equal(t, 0, w.Processed())
	}
}
