// Package progress persists per-category pagination cursors between runs and
// bounds how many pages one run may fetch.
package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/npa-sniper/internal/feed"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/schemas"
)

// AuctionState is the cursor of the auction feed.
type AuctionState struct {
	Page int `json:"page"`
}

// State is the last completed page per category.
type State struct {
	Regular map[string]int `json:"regular"`
	Auction AuctionState   `json:"auction"`
}

// NewState returns a zeroed state.
func NewState() *State {
	return &State{Regular: map[string]int{}}
}

// Cursor returns the last completed page of category.
func (s *State) Cursor(category feed.Category) int {
	if category.IsAuction() {
		return s.Auction.Page
	}
	return s.Regular[category.Label]
}

// SetCursor records page as the last completed page of category.
func (s *State) SetCursor(category feed.Category, page int) {
	page = max(0, page)
	if category.IsAuction() {
		s.Auction.Page = page
		return
	}
	if s.Regular == nil {
		s.Regular = map[string]int{}
	}
	s.Regular[category.Label] = page
}

// Tracker loads and saves State at a file path.
type Tracker struct {
	path   string
	logger logging.Logger
}

// NewTracker creates a tracker for path. An empty path disables persistence.
func NewTracker(path string, logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{path: path, logger: logger}
}

// Path returns the backing file path.
func (t *Tracker) Path() string {
	return t.path
}

// Exists reports whether saved progress is present.
func (t *Tracker) Exists() bool {
	if t.path == "" {
		return false
	}
	_, err := os.Stat(t.path)
	return err == nil
}

// Load reads the saved state. A missing, unreadable or corrupt file yields a zeroed state.
func (t *Tracker) Load() *State {
	state := NewState()
	if t.path == "" {
		return state
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("failed to read progress file", logging.String("path", t.path), logging.Error(err))
		}
		return state
	}

	if err := schemas.Validate(schemas.Progress, data); err != nil {
		t.logger.Warn("ignoring invalid progress file", logging.String("path", t.path), logging.Error(err))
		return state
	}

	var raw struct {
		Regular map[string]any `json:"regular"`
		Auction struct {
			Page any `json:"page"`
		} `json:"auction"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.logger.Warn("ignoring corrupt progress file", logging.String("path", t.path), logging.Error(err))
		return state
	}

	for label, value := range raw.Regular {
		state.Regular[label] = coercePage(value)
	}
	state.Auction.Page = coercePage(raw.Auction.Page)
	return state
}

// Save rewrites the whole file. The new content is written to a sibling
// temporary file and renamed over the old one.
func (t *Tracker) Save(state *State) error {
	if t.path == "" {
		return nil
	}
	if state.Regular == nil {
		state.Regular = map[string]int{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	return WriteFileAtomic(t.path, data)
}

// Reset removes the saved state.
func (t *Tracker) Reset() error {
	if t.path == "" {
		return nil
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove progress file: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// coercePage turns a loosely typed cursor into a non-negative page number.
func coercePage(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return max(0, int(f))
}
