package planning

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/npa-sniper/internal/progress"
	"github.com/jonathan/npa-sniper/internal/schemas"
	"github.com/jonathan/npa-sniper/internal/types"
)

// PlanFileError represents a plan file that exists but cannot be used.
type PlanFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PlanFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan file %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("plan file %s: %s", e.Path, e.Message)
}

func (e *PlanFileError) Unwrap() error {
	return e.Cause
}

// PlanFile is the single-use durable home of a PagePlan.
type PlanFile struct {
	path string
}

// NewPlanFile creates a PlanFile at path. An empty path means no plan is ever present.
func NewPlanFile(path string) *PlanFile {
	return &PlanFile{path: path}
}

// Path returns the backing file path.
func (f *PlanFile) Path() string {
	return f.path
}

// Load reads the plan. It returns nil, nil when no plan file exists.
func (f *PlanFile) Load() (*types.PagePlan, error) {
	if f.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PlanFileError{Path: f.path, Message: "failed to read", Cause: err}
	}

	if err := schemas.Validate(schemas.Plan, data); err != nil {
		return nil, &PlanFileError{Path: f.path, Message: "invalid plan", Cause: err}
	}

	var plan types.PagePlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, &PlanFileError{Path: f.path, Message: "failed to decode", Cause: err}
	}
	return &plan, nil
}

// Write replaces the plan file with plan.
func (f *PlanFile) Write(plan *types.PagePlan) error {
	if f.path == "" {
		return &PlanFileError{Message: "no plan path configured"}
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return &PlanFileError{Path: f.path, Message: "failed to encode", Cause: err}
	}
	if err := progress.WriteFileAtomic(f.path, data); err != nil {
		return &PlanFileError{Path: f.path, Message: "failed to write", Cause: err}
	}
	return nil
}

// Consume deletes the plan so it is used at most once. A missing file is not an error.
func (f *PlanFile) Consume() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return &PlanFileError{Path: f.path, Message: "failed to remove", Cause: err}
	}
	return nil
}
