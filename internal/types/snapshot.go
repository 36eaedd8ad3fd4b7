package types

import (
	"slices"
	"time"
)

// Feed types recorded in snapshots and progress state.
const (
	FeedRegular = "regular"
	FeedAuction = "auction"
)

// FeedSnapshot is one observation of a feed category's size.
// Rows are append-only; the latest per (FeedType, Category) by CheckedAt is the current known size.
type FeedSnapshot struct {
	FeedType     string    `json:"feed_type"`
	Category     string    `json:"category"`
	TotalRecords int       `json:"total_records"`
	PageCount    int       `json:"page_count"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Key returns the partition key of the snapshot.
func (s FeedSnapshot) Key() SnapshotKey {
	return SnapshotKey{FeedType: s.FeedType, Category: s.Category}
}

// SnapshotKey identifies a snapshot partition.
type SnapshotKey struct {
	FeedType string
	Category string
}

// PagePlan is the sparse set of pages the next scrape should fetch.
// It is produced once by the snapshot tool and consumed at most once by the orchestrator.
type PagePlan struct {
	GeneratedAtUTC   string           `json:"generated_at_utc"`
	GeneratedAtTH    string           `json:"generated_at_th"`
	PageSize         int              `json:"page_size"`
	HeadRefreshPages int              `json:"head_refresh_pages"`
	TailRecheckPages int              `json:"tail_recheck_pages"`
	Regular          map[string][]int `json:"regular"`
	Auction          []int            `json:"auction"`
}

// RegularPages returns the normalized page list for a regular category.
func (p *PagePlan) RegularPages(category string) []int {
	if p == nil {
		return nil
	}
	return NormalizePages(p.Regular[category])
}

// AuctionPages returns the normalized auction page list.
func (p *PagePlan) AuctionPages() []int {
	if p == nil {
		return nil
	}
	return NormalizePages(p.Auction)
}

// TotalPages counts every planned page across categories.
func (p *PagePlan) TotalPages() int {
	if p == nil {
		return 0
	}
	total := len(p.AuctionPages())
	for category := range p.Regular {
		total += len(p.RegularPages(category))
	}
	return total
}

// NormalizePages drops non-positive entries, sorts, and removes duplicates.
func NormalizePages(pages []int) []int {
	out := make([]int, 0, len(pages))
	for _, page := range pages {
		if page > 0 {
			out = append(out, page)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
