package ingest

// State is the scan state of one category within a run.
type State string

// Category scan states.
const (
	StatePlanned              State = "PLANNED"
	StateCursorScan           State = "CURSOR-SCAN"
	StateDone                 State = "DONE"
	StatePausedOnWindow       State = "PAUSED-ON-WINDOW"
	StatePausedOnFailureChain State = "PAUSED-ON-FAILURE-CHAIN"
)

// Terminal reports whether no further pages are fetched in this state.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StatePausedOnWindow, StatePausedOnFailureChain:
		return true
	default:
		return false
	}
}

// Mode is how a category's pages were chosen.
type Mode string

// Scan modes.
const (
	ModePlan   Mode = "plan"
	ModeCursor Mode = "cursor"
)

// CategoryReport summarizes what happened to one category in a run.
type CategoryReport struct {
	Category     string `json:"category"`
	FeedType     string `json:"feed_type"`
	Mode         Mode   `json:"mode"`
	State        State  `json:"state"`
	StartCursor  int    `json:"start_cursor"`
	EndCursor    int    `json:"end_cursor"`
	PagesFetched int    `json:"pages_fetched"`
	Listings     int    `json:"listings"`
	EmptyPages   []int  `json:"empty_pages,omitempty"`
	FailedPages  []int  `json:"failed_pages,omitempty"`
	SkippedPages []int  `json:"skipped_pages,omitempty"`
	DroppedPages []int  `json:"dropped_pages,omitempty"`
}

// transition moves the report to a new state. Terminal states are final.
func (r *CategoryReport) transition(to State) bool {
	if r.State.Terminal() {
		return false
	}
	r.State = to
	return true
}
