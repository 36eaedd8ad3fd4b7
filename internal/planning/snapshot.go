package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/types"
)

// SnapshotStore is the append-only snapshot log.
type SnapshotStore interface {
	LatestSnapshots(ctx context.Context) (map[types.SnapshotKey]types.FeedSnapshot, error)
	InsertSnapshots(ctx context.Context, snapshots []types.FeedSnapshot) error
}

// MetadataSource captures the live size of every feed category.
type MetadataSource interface {
	CaptureSnapshots(ctx context.Context) ([]types.FeedSnapshot, error)
}

// PlanWriter stores a generated plan.
type PlanWriter interface {
	Write(plan *types.PagePlan) error
}

// SnapshotService records a fresh snapshot of every category and writes the
// plan derived from it and the previous snapshot.
type SnapshotService struct {
	store    SnapshotStore
	source   MetadataSource
	writer   PlanWriter
	settings Settings
	logger   logging.Logger
	now      func() time.Time
}

// NewSnapshotService wires a snapshot service.
func NewSnapshotService(store SnapshotStore, source MetadataSource, writer PlanWriter, settings Settings, logger logging.Logger) *SnapshotService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SnapshotService{
		store:    store,
		source:   source,
		writer:   writer,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reads the latest snapshots, captures and appends new ones, then builds
// and writes the plan. Nothing is written when capture fails.
func (s *SnapshotService) Run(ctx context.Context) (*types.PagePlan, error) {
	previous, err := s.store.LatestSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous snapshots: %w", err)
	}

	current, err := s.source.CaptureSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture feed metadata: %w", err)
	}

	if err := s.store.InsertSnapshots(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to record snapshots: %w", err)
	}

	plan := BuildPlan(previous, current, s.settings, s.now())
	if err := s.writer.Write(plan); err != nil {
		return nil, err
	}

	s.logger.Info("delta plan written",
		logging.Int("previous_snapshots", len(previous)),
		logging.Int("categories", len(current)),
		logging.Int("planned_pages", plan.TotalPages()),
		logging.Int("head_refresh_pages", s.settings.HeadRefreshPages),
		logging.Int("tail_recheck_pages", s.settings.TailRecheckPages))
	return plan, nil
}
