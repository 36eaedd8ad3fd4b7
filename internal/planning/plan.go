// Package planning computes the sparse set of feed pages worth re-fetching
// from consecutive feed snapshots, and stores the resulting plan.
package planning

import (
	"slices"
	"time"
	_ "time/tzdata" // Asia/Bangkok must resolve on hosts without zoneinfo

	"github.com/jonathan/npa-sniper/internal/types"
)

// ThaiZone is the zone of the second plan timestamp.
const ThaiZone = "Asia/Bangkok"

// Settings are the refresh widths used when computing pages.
type Settings struct {
	PageSize         int
	HeadRefreshPages int
	TailRecheckPages int
}

// ComputePages returns the sorted pages of one category to re-fetch.
// previous is nil when the category has no recorded snapshot.
func ComputePages(current types.FeedSnapshot, previous *types.FeedSnapshot, settings Settings) []int {
	currentPages := max(0, current.PageCount)
	if currentPages == 0 {
		return []int{}
	}

	pages := make(map[int]struct{})
	addRange := func(start, end int) {
		for p := max(1, start); p <= end; p++ {
			pages[p] = struct{}{}
		}
	}

	addRange(1, min(currentPages, max(0, settings.HeadRefreshPages)))

	if tail := min(currentPages, max(0, settings.TailRecheckPages)); tail > 0 {
		addRange(currentPages-tail+1, currentPages)
	}

	if previous != nil {
		prevPages := max(0, previous.PageCount)
		switch {
		case currentPages > prevPages:
			addRange(prevPages+1, currentPages)
		case prevPages > currentPages:
			if shrink := min(currentPages, 2*max(0, settings.TailRecheckPages)); shrink > 0 {
				addRange(currentPages-shrink+1, currentPages)
			}
		}
	}

	out := make([]int, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// BuildPlan computes pages for every current snapshot against its previous one.
// Categories with no pages are left out of the plan.
func BuildPlan(previous map[types.SnapshotKey]types.FeedSnapshot, current []types.FeedSnapshot, settings Settings, now time.Time) *types.PagePlan {
	plan := &types.PagePlan{
		GeneratedAtUTC:   now.UTC().Format(time.RFC3339),
		GeneratedAtTH:    now.In(thaiLocation()).Format(time.RFC3339),
		PageSize:         settings.PageSize,
		HeadRefreshPages: settings.HeadRefreshPages,
		TailRecheckPages: settings.TailRecheckPages,
		Regular:          map[string][]int{},
		Auction:          []int{},
	}

	for _, snap := range current {
		var prev *types.FeedSnapshot
		if p, ok := previous[snap.Key()]; ok {
			prev = &p
		}
		pages := ComputePages(snap, prev, settings)
		if len(pages) == 0 {
			continue
		}
		if snap.FeedType == types.FeedAuction {
			plan.Auction = pages
		} else {
			plan.Regular[snap.Category] = pages
		}
	}
	return plan
}

func thaiLocation() *time.Location {
	loc, err := time.LoadLocation(ThaiZone)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}
