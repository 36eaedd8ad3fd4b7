package planning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/npa-sniper/internal/types"
)

func TestPlanFile_WriteLoadConsume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bam_delta_plan.json")
	file := NewPlanFile(path)

	plan := &types.PagePlan{
		GeneratedAtUTC:   "2026-05-01T20:30:00Z",
		PageSize:         12,
		HeadRefreshPages: 2,
		TailRecheckPages: 3,
		Regular:          map[string][]int{"Condos": {1, 2, 6}},
		Auction:          []int{1},
	}
	require.NoError(t, file.Write(plan))

	loaded, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, plan, loaded)

	require.NoError(t, file.Consume())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	loaded, err = file.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded, "a consumed plan is gone")

	require.NoError(t, file.Consume(), "consuming twice is fine")
}

func TestPlanFile_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"regular": {"Condos": "1-5"}}`), 0644))

	plan, err := NewPlanFile(path).Load()
	assert.Nil(t, plan)

	var planErr *PlanFileError
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, path, planErr.Path)
}

func TestPlanFile_EmptyPath(t *testing.T) {
	file := NewPlanFile("")
	plan, err := file.Load()
	assert.NoError(t, err)
	assert.Nil(t, plan)
	assert.NoError(t, file.Consume())
	assert.Error(t, file.Write(&types.PagePlan{}))
}
