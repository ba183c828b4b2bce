package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/barnlog/internal/narrative"
	"github.com/alexanderramin/barnlog/internal/signals"
)

// SummaryContext is everything a summary prompt may draw on. Today is
// passed in; rendering never reads the clock.
type SummaryContext struct {
	HorseName string
	Today     time.Time
	Signals   signals.Signals
	Rides     []signals.Row
}

// RenderSummary renders the horse summary prompt for version v.
func RenderSummary(v SummaryVersion, c SummaryContext) (Prompt, error) {
	switch v {
	case SummaryV1:
		return Prompt{System: summarySystemV1(c), User: summaryUser(c, false)}, nil
	case SummaryV2:
		return Prompt{System: summarySystemV2(c), User: summaryUser(c, true)}, nil
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
}

func summarySystemV1(c SummaryContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write short training recaps for the people who ride and care for %s, a horse at a small barn.\n\n", c.HorseName)
	b.WriteString("Write two short paragraphs of plain prose, 90 to 160 words in total, about how the last few weeks of work have gone.\n\n")
	b.WriteString("Style rules:\n")
	writeStyleRules(&b)
	b.WriteString("\nWork types:\n")
	writeLegend(&b)
	b.WriteString("\nRespond with a JSON object of the form {\"summary\": \"...\"} and nothing else.")
	return b.String()
}

func summarySystemV2(c SummaryContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the barn's quiet observer. You write a recap of %s's recent training that a rider could read in half a minute.\n\n", c.HorseName)
	b.WriteString("Write one paragraph of plain prose, 70 to 130 words. Open with how the horse has been going overall, then cover the kind of work, any break, and who has been riding. Let the signals guide what matters and use the rides for texture.\n\n")
	b.WriteString("Style rules:\n")
	writeStyleRules(&b)
	b.WriteString("- When a flag is present, acknowledge it plainly in one clause. Do not diagnose.\n")
	b.WriteString("\nFlags:\n")
	fmt.Fprintf(&b, "%s = few recent rides have notes, so say less about how the horse felt\n", signals.FlagNoteSparseRecent)
	fmt.Fprintf(&b, "%s = a recent note mentions soundness or a vet, so mention it without speculating\n", signals.FlagSoundnessCheck)
	b.WriteString("\nWork types:\n")
	writeLegend(&b)
	b.WriteString("\nRespond with a JSON object of the form {\"summary\": \"...\"} and nothing else.")
	return b.String()
}

func writeStyleRules(b *strings.Builder) {
	b.WriteString("- Plain paragraphs only. No bullet points, numbered lists, headings, or \"Label:\" lines.\n")
	b.WriteString("- Never use em-dashes. Use commas or full stops.\n")
	fmt.Fprintf(b, "- Describe what happened. Give no advice and never use: %s.\n", strings.Join(narrative.AdviceTerms, ", "))
	fmt.Fprintf(b, "- Write about the horse and the rides, not about records. Never use: %s.\n", strings.Join(narrative.DatasetTerms, ", "))
	b.WriteString("- Mention at most two specific dates and never open a sentence with a date.\n")
	b.WriteString("- Use the work type labels below, never the codes.\n")
}

func summaryUser(c SummaryContext, withFlags bool) string {
	s := c.Signals
	var b strings.Builder
	fmt.Fprintf(&b, "Horse: %s\n", c.HorseName)
	fmt.Fprintf(&b, "Today: %s\n\n", c.Today.Format(dateLayout))

	b.WriteString("Signals:\n")
	fmt.Fprintf(&b, "workload over the last 14 days: %s, trend %s\n", s.Workload14d, s.WorkloadTrend)
	fmt.Fprintf(&b, "recent pattern: %s\n", s.RecentPattern)
	if len(s.RecentFocus) > 0 {
		fmt.Fprintf(&b, "recent focus: %s\n", strings.Join(s.RecentFocus, ", "))
	}
	fmt.Fprintf(&b, "longest break: %s\n", s.LongestBreak)
	if s.Riders != nil {
		fmt.Fprintf(&b, "riders: %s\n", *s.Riders)
	}
	fmt.Fprintf(&b, "notes: %s\n", s.NotesCoverage)
	if withFlags && len(s.Flags) > 0 {
		flags := make([]string, len(s.Flags))
		for i, f := range s.Flags {
			flags[i] = string(f)
		}
		fmt.Fprintf(&b, "flags: %s\n", strings.Join(flags, ", "))
	}

	b.WriteString("\nRides, oldest to newest (date | work type | duration | rider | notes):\n")
	writeRides(&b, c.Rides)
	return b.String()
}
