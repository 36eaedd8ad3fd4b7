// Package observability provides formatted output utilities for the sniper CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/npa-sniper/internal/db"
	"github.com/jonathan/npa-sniper/internal/ingest"
	"github.com/jonathan/npa-sniper/internal/progress"
	"github.com/jonathan/npa-sniper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxPagesToShow caps page lists inside a box line
	maxPagesToShow = 12
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatPages(pages []int) string {
	if len(pages) == 0 {
		return "-"
	}
	shown := pages
	if len(shown) > maxPagesToShow {
		shown = shown[:maxPagesToShow]
	}
	parts := make([]string, len(shown))
	for i, page := range shown {
		parts[i] = fmt.Sprint(page)
	}
	out := strings.Join(parts, ",")
	if len(pages) > maxPagesToShow {
		out += fmt.Sprintf(" (+%d)", len(pages)-maxPagesToShow)
	}
	return out
}

// PrintPlan outputs the pending page plan.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPlan(plan *types.PagePlan, categories []string) {
	if plan == nil {
		fmt.Fprintln(p.out, "No page plan pending; the next scrape resumes from saved progress.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated: %s\n", plan.GeneratedAtTH))
	sb.WriteString(fmt.Sprintf("Page size: %d  head: %d  tail: %d\n",
		plan.PageSize, plan.HeadRefreshPages, plan.TailRecheckPages))
	sb.WriteString(fmt.Sprintf("Total pages: %d\n\n", plan.TotalPages()))

	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("%-22s %s\n", category, formatPages(plan.RegularPages(category))))
	}
	sb.WriteString(fmt.Sprintf("%-22s %s", "Auction", formatPages(plan.AuctionPages())))

	p.printBox("DELTA PAGE PLAN", sb.String())
}

// PrintProgress outputs the saved cursors.
func (p *Printer) PrintProgress(state *progress.State, categories []string) {
	if state == nil {
		state = progress.NewState()
	}

	var sb strings.Builder
	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("%-22s page %d\n", category, state.Regular[category]))
	}
	sb.WriteString(fmt.Sprintf("%-22s page %d", "Auction", state.Auction.Page))

	p.printBox("SCRAPE PROGRESS", sb.String())
}

// PrintSnapshots outputs the feed sizes captured by a snapshot run.
func (p *Printer) PrintSnapshots(snapshots []types.FeedSnapshot) {
	if len(snapshots) == 0 {
		return
	}

	var sb strings.Builder
	for i, s := range snapshots {
		sb.WriteString(fmt.Sprintf("%-22s %6d records  %4d pages", s.Category, s.TotalRecords, s.PageCount))
		if i < len(snapshots)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("FEED SNAPSHOT", sb.String())
}

// PrintCategoryReports outputs what the scan did per category.
func (p *Printer) PrintCategoryReports(reports []ingest.CategoryReport) {
	if len(reports) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range reports {
		sb.WriteString(fmt.Sprintf("%s [%s] %s\n", r.Category, r.Mode, r.State))
		sb.WriteString(fmt.Sprintf("  cursor %d → %d, %d pages, %d listings\n",
			r.StartCursor, r.EndCursor, r.PagesFetched, r.Listings))
		if len(r.FailedPages) > 0 {
			sb.WriteString(fmt.Sprintf("  ⚠ failed: %s\n", formatPages(r.FailedPages)))
		}
		if len(r.SkippedPages) > 0 {
			sb.WriteString(fmt.Sprintf("  skipped: %s\n", formatPages(r.SkippedPages)))
		}
		if len(r.DroppedPages) > 0 {
			sb.WriteString(fmt.Sprintf("  dropped by window: %s\n", formatPages(r.DroppedPages)))
		}
		if i < len(reports)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CATEGORY REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the storage counters of a run.
func (p *Printer) PrintRunSummary(summary types.RunSummary) {
	icon := "✅"
	switch summary.Status {
	case types.RunStatusAborted:
		icon = "🛑"
	case types.RunStatusFailed:
		icon = "❌"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n\n", icon, strings.ToUpper(string(summary.Status))))
	sb.WriteString(fmt.Sprintf("Processed:  %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("New:        %d\n", summary.Inserted))
	sb.WriteString(fmt.Sprintf("Refreshed:  %d\n", summary.Updated))
	sb.WriteString(fmt.Sprintf("Batches:    %d", summary.Batches))
	if summary.DuplicatesSkipped > 0 {
		sb.WriteString(fmt.Sprintf("\nDuplicate URLs skipped: %d", summary.DuplicatesSkipped))
	}
	if summary.MissingURL > 0 {
		sb.WriteString(fmt.Sprintf("\nListings without URL: %d", summary.MissingURL))
	}

	p.printBox("DATA SYNC SUMMARY", sb.String())
}

// PrintProperty outputs one stored property.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProperty(prop *db.Property) {
	if prop == nil {
		fmt.Fprintln(p.out, "Property not found.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %d\n", prop.ID))
	sb.WriteString(fmt.Sprintf("Title:     %s\n", deref(prop.TitleEN, deref(prop.Title, "-"))))
	sb.WriteString(fmt.Sprintf("Type:      %s (%s)\n", deref(prop.PropertyType, "-"), deref(prop.SaleChannel, "-")))
	sb.WriteString(fmt.Sprintf("Price:     %s THB\n", formatFloat(prop.Price, "%.0f")))
	sb.WriteString(fmt.Sprintf("Size:      %s sqm\n", formatFloat(prop.SizeSqm, "%.1f")))
	sb.WriteString(fmt.Sprintf("Location:  %s\n", deref(prop.LocationEN, deref(prop.Location, "-"))))
	coords := fmt.Sprintf("%s, %s", formatFloat(prop.Lat, "%.5f"), formatFloat(prop.Lon, "%.5f"))
	if prop.CoordsApproximate {
		coords += " (approx.)"
	}
	sb.WriteString(fmt.Sprintf("Coords:    %s\n", coords))
	sb.WriteString(fmt.Sprintf("Strategy:  %s  rating %s\n", deref(prop.Strategy, "-"), formatFloat(prop.TotalRating, "%.1f")))
	sb.WriteString(fmt.Sprintf("Updated:   %s\n", prop.LastUpdated.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("URL:       %s", prop.URL))

	p.printBox("PROPERTY", sb.String())
}

// PrintSavedProperties outputs a user's saved list.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSavedProperties(username string, saved []db.SavedProperty) {
	if len(saved) == 0 {
		fmt.Fprintf(p.out, "No saved properties for %s.\n", username)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d saved:\n\n", len(saved)))
	for i, s := range saved {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", s.ID, deref(s.TitleEN, deref(s.Title, "-"))))
		sb.WriteString(fmt.Sprintf("    %s THB, saved %s", formatFloat(s.Price, "%.0f"), s.SavedAt.Format("2006-01-02")))
		if i < len(saved)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SAVED PROPERTIES: "+username, sb.String())
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func formatFloat(f *float64, format string) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf(format, *f)
}
