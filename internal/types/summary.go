package types

// RunStatus is the terminal status of a storage run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary holds the counters reported at the end of a storage run.
type RunSummary struct {
	Processed         int       `json:"processed"`
	Inserted          int       `json:"inserted"`
	Updated           int       `json:"updated"`
	DuplicatesSkipped int       `json:"duplicates_skipped"`
	MissingURL        int       `json:"missing_url"`
	Batches           int       `json:"batches"`
	Status            RunStatus `json:"status"`
}
