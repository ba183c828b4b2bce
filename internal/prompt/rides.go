package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/signals"
)

// Note budgets by recency rank, newest first.
const (
	newestRides     = 5
	newestNoteChars = 1000
	middleRides     = 7
	middleNoteChars = 400
	oldestNoteChars = 200
)

const ellipsis = "…"

// noteLimit is the rune budget for the ride at rank, where rank 0 is the
// newest ride.
func noteLimit(rank int) int {
	switch {
	case rank < newestRides:
		return newestNoteChars
	case rank < newestRides+middleRides:
		return middleNoteChars
	default:
		return oldestNoteChars
	}
}

// truncate cuts s to at most limit runes, appending an ellipsis when
// anything was dropped.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}

// oneLine collapses all whitespace runs, newlines included, to one space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// writeRides serializes rides oldest to newest, one line each.
func writeRides(b *strings.Builder, rides []signals.Row) {
	sorted := make([]signals.Row, len(rides))
	copy(sorted, rides)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	if len(sorted) == 0 {
		b.WriteString("(no rides)\n")
		return
	}
	for i, r := range sorted {
		rank := len(sorted) - 1 - i
		rider := strings.TrimSpace(r.RiderName)
		if rider == "" {
			rider = "unknown rider"
		}
		fmt.Fprintf(b, "%s | %s | %d min | %s", r.Date.Format(dateLayout), r.WorkType, r.DurationMinutes, rider)
		if notes := oneLine(r.Notes); notes != "" {
			fmt.Fprintf(b, " | %s", truncate(notes, noteLimit(rank)))
		}
		b.WriteByte('\n')
	}
}

// writeLegend lists every work type code with its display label.
func writeLegend(b *strings.Builder) {
	for _, wt := range domain.WorkTypes {
		fmt.Fprintf(b, "%s = %s\n", wt, wt.Label())
	}
}

const dateLayout = "2006-01-02"
