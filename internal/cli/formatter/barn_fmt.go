package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/signals"
)

// FormatSessions renders sessions newest first as a table.
func FormatSessions(sessions []*domain.Session, now time.Time) string {
	if len(sessions) == 0 {
		return Dim("No sessions logged yet.") + "\n"
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rider := s.RiderName
		if rider == "" {
			rider = Dim("unknown")
		}
		rows = append(rows, []string{
			s.Date.Format(time.DateOnly),
			Dim(DaysAgo(s.Date, now)),
			s.WorkType.Label(),
			Minutes(s.DurationMinutes),
			rider,
			Truncate(strings.Join(strings.Fields(s.Notes), " "), 48),
			Dim(s.ID),
		})
	}
	return RenderTable([]string{"DATE", "", "WORK", "TIME", "RIDER", "NOTES", "ID"}, rows)
}

// FormatHorses renders a barn's horses.
func FormatHorses(horses []*domain.Horse) string {
	if len(horses) == 0 {
		return Dim("No horses yet.") + "\n"
	}
	rows := make([][]string, 0, len(horses))
	for _, h := range horses {
		rows = append(rows, []string{Bold(h.Name), Dim(h.ID)})
	}
	return RenderTable([]string{"HORSE", "ID"}, rows)
}

// FormatSignals renders the derived signals for one horse.
func FormatSignals(horseName string, s signals.Signals, sessions int) string {
	var b strings.Builder
	b.WriteString(Header(horseName))
	b.WriteString("\n")

	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render(fmt.Sprintf("%-10s", label)), value)
	}
	line("workload", WorkloadStyle(s.Workload14d).Render(string(s.Workload14d))+"  "+TrendIndicator(s.WorkloadTrend))
	line("pattern", s.RecentPattern)
	if len(s.RecentFocus) > 0 {
		line("focus", strings.Join(s.RecentFocus, ", "))
	}
	line("breaks", s.LongestBreak)
	if s.Riders != nil {
		line("riders", *s.Riders)
	}
	line("notes", s.NotesCoverage)
	line("sessions", fmt.Sprintf("%d in the last 90 days", sessions))

	for _, f := range s.Flags {
		b.WriteString("\n")
		b.WriteString(FlagIndicator(f))
	}
	if len(s.Flags) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSummary renders a stored summary in a box with its provenance.
func FormatSummary(horseName string, s *domain.HorseSummary, now time.Time) string {
	meta := fmt.Sprintf("%s · %s · prompt %s · %d attempt(s) · %d tokens",
		DaysAgo(s.GeneratedAt, now), s.Model, s.PromptVersion, s.Attempts, s.TotalTokens)
	return RenderBox(horseName, s.Text+"\n\n"+Dim(meta)) + "\n"
}
