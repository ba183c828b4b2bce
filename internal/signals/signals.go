// Package signals derives descriptive statistics about a horse's recent
// training from its session rows. The statistics seed narrative generation
// without handing raw rows to the model verbatim.
package signals

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/barnlog/internal/domain"
)

// Row is the immutable projection of a session used for signal computation.
type Row struct {
	Date            time.Time
	WorkType        domain.WorkType
	DurationMinutes int
	RiderName       string
	Notes           string
}

// RowsFromSessions projects persisted sessions into rows, preserving order.
func RowsFromSessions(sessions []*domain.Session) []Row {
	rows := make([]Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, Row{
			Date:            s.Date,
			WorkType:        s.WorkType,
			DurationMinutes: s.DurationMinutes,
			RiderName:       s.RiderName,
			Notes:           s.Notes,
		})
	}
	return rows
}

type Workload string

const (
	WorkloadLight    Workload = "light"
	WorkloadModerate Workload = "moderate"
	WorkloadHeavy    Workload = "heavy"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendSteady Trend = "steady"
	TrendDown   Trend = "down"
)

type Flag string

const (
	FlagNoteSparseRecent Flag = "note_sparse_recent"
	FlagSoundnessCheck   Flag = "soundness_check"
)

const (
	PatternNoRecentWork = "no recent work in the last two weeks"
	BreakNone           = "no significant breaks"

	CoverageAlmostAll = "notes on almost every ride"
	CoverageMost      = "notes on most rides"
	CoverageSome      = "notes on some rides"
	CoverageNone      = "no ride notes"
)

const (
	recentWindowDays = 14
	focusLimit       = 2
	riderShareMinPct = 30
	sparseWindow     = 5
	soundnessWindow  = 3
)

var soundnessPattern = regexp.MustCompile(`(?i)\b(lame(ness)?|unsound|soundness|vet( check)?|sore|swelling|swollen|heat|flexion|bute|off behind|off in front)\b`)

// Signals are derived fresh on every request and never stored on their own.
type Signals struct {
	Workload14d   Workload `json:"workload14d"`
	WorkloadTrend Trend    `json:"workloadTrend"`
	RecentPattern string   `json:"recentPattern"`
	RecentFocus   []string `json:"recentFocus"`
	LongestBreak  string   `json:"longestBreak"`
	Riders        *string  `json:"riders"`
	Flags         []Flag   `json:"flags"`
	NotesCoverage string   `json:"notesCoverage"`
}

// HasFlag reports whether f was raised.
func (s Signals) HasFlag(f Flag) bool {
	for _, got := range s.Flags {
		if got == f {
			return true
		}
	}
	return false
}

// Compute derives Signals from rows relative to now. It is a pure function:
// rows are copied and stably sorted by date, and now is the only clock
// reading used.
func Compute(rows []Row, now time.Time) Signals {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var recent []Row
	prior := 0
	for _, r := range sorted {
		d := daysSince(now, r.Date)
		switch {
		case d < recentWindowDays:
			recent = append(recent, r)
		case d < 2*recentWindowDays:
			prior++
		}
	}

	focus := recentFocus(recent)
	return Signals{
		Workload14d:   WorkloadFor(len(recent)),
		WorkloadTrend: trendFor(len(recent), prior),
		RecentPattern: recentPattern(recent, focus),
		RecentFocus:   focusLabels(focus),
		LongestBreak:  longestBreak(sorted),
		Riders:        riderSplit(sorted),
		Flags:         flags(sorted),
		NotesCoverage: notesCoverage(sorted),
	}
}

// WorkloadFor buckets a 14-day session count.
func WorkloadFor(count int) Workload {
	switch {
	case count >= 8:
		return WorkloadHeavy
	case count >= 4:
		return WorkloadModerate
	default:
		return WorkloadLight
	}
}

func trendFor(current, prior int) Trend {
	switch diff := current - prior; {
	case diff > 1:
		return TrendUp
	case diff < -1:
		return TrendDown
	default:
		return TrendSteady
	}
}

type categoryCount struct {
	workType domain.WorkType
	count    int
}

// recentFocus ranks work types by frequency. Ties keep first-seen order.
func recentFocus(recent []Row) []categoryCount {
	var counts []categoryCount
	index := make(map[domain.WorkType]int)
	for _, r := range recent {
		i, ok := index[r.WorkType]
		if !ok {
			i = len(counts)
			index[r.WorkType] = i
			counts = append(counts, categoryCount{workType: r.WorkType})
		}
		counts[i].count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > focusLimit {
		counts = counts[:focusLimit]
	}
	return counts
}

func focusLabels(focus []categoryCount) []string {
	labels := make([]string, 0, len(focus))
	for _, c := range focus {
		labels = append(labels, c.workType.Label())
	}
	return labels
}

func recentPattern(recent []Row, focus []categoryCount) string {
	switch len(focus) {
	case 0:
		return PatternNoRecentWork
	case 1:
		return "mostly " + focus[0].workType.Label()
	}
	top, second := focus[0], focus[1]
	if top.count*100 >= 60*len(recent) {
		return fmt.Sprintf("mostly %s with some %s", top.workType.Label(), second.workType.Label())
	}
	return fmt.Sprintf("mix of %s and %s", top.workType.Label(), second.workType.Label())
}

func longestBreak(sorted []Row) string {
	maxGap := 0
	var ended time.Time
	for i := 1; i < len(sorted); i++ {
		if g := gapDays(sorted[i-1].Date, sorted[i].Date); g > maxGap {
			maxGap = g
			ended = sorted[i].Date
		}
	}

	var label string
	switch {
	case maxGap <= 3:
		return BreakNone
	case maxGap <= 7:
		label = "about a week off"
	case maxGap <= 14:
		label = "about two weeks off"
	default:
		label = fmt.Sprintf("%d days off", maxGap)
	}
	return fmt.Sprintf("%s (ended %s)", label, ended.Format("Jan 2"))
}

// riderSplit lists riders holding at least 30% of all rows, but only when
// two or more riders qualify. Percentages are floored so they never sum
// past 100.
func riderSplit(sorted []Row) *string {
	if len(sorted) == 0 {
		return nil
	}
	type share struct {
		name  string
		count int
	}
	var shares []share
	index := make(map[string]int)
	for _, r := range sorted {
		name := strings.TrimSpace(r.RiderName)
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(shares)
			index[name] = i
			shares = append(shares, share{name: name})
		}
		shares[i].count++
	}

	total := len(sorted)
	var parts []string
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].count > shares[j].count })
	for _, s := range shares {
		if s.count*100 < riderShareMinPct*total {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d%%)", s.name, s.count*100/total))
	}
	if len(parts) < 2 {
		return nil
	}
	out := strings.Join(parts, ", ")
	return &out
}

func flags(sorted []Row) []Flag {
	out := []Flag{}
	if len(sorted) == 0 {
		return out
	}

	withNotes := 0
	for _, r := range tail(sorted, sparseWindow) {
		if hasNotes(r) {
			withNotes++
		}
	}
	if withNotes <= 1 {
		out = append(out, FlagNoteSparseRecent)
	}

	for _, r := range tail(sorted, soundnessWindow) {
		if soundnessPattern.MatchString(r.Notes) {
			out = append(out, FlagSoundnessCheck)
			break
		}
	}
	return out
}

func notesCoverage(sorted []Row) string {
	if len(sorted) == 0 {
		return CoverageNone
	}
	withNotes := 0
	for _, r := range sorted {
		if hasNotes(r) {
			withNotes++
		}
	}
	pct := withNotes * 100
	total := len(sorted)
	switch {
	case pct >= 80*total:
		return CoverageAlmostAll
	case pct >= 50*total:
		return CoverageMost
	case withNotes > 0:
		return CoverageSome
	default:
		return CoverageNone
	}
}

func hasNotes(r Row) bool {
	return strings.TrimSpace(r.Notes) != ""
}

func tail(rows []Row, n int) []Row {
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}
