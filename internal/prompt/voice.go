package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/barnlog/internal/names"
)

// VoiceContext is what the caller knows when a spoken note is parsed.
type VoiceContext struct {
	Transcript  string
	Horses      []names.Candidate
	Riders      []names.Candidate
	SpeakerName string
	Today       time.Time
}

// RenderVoice renders the structured extraction prompt for version v.
func RenderVoice(v VoiceVersion, c VoiceContext) (Prompt, error) {
	switch v {
	case VoiceV1:
		return Prompt{System: voiceSystem(c, false), User: voiceUser(c)}, nil
	case VoiceV2:
		return Prompt{System: voiceSystem(c, true), User: voiceUser(c)}, nil
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
}

func voiceSystem(c VoiceContext, strictNotes bool) string {
	var b strings.Builder
	b.WriteString("You turn a rider's spoken note about one training session into structured fields.\n\n")
	fmt.Fprintf(&b, "Today is %s, %s.\n", c.Today.Weekday(), c.Today.Format(dateLayout))
	if speaker := strings.TrimSpace(c.SpeakerName); speaker != "" {
		fmt.Fprintf(&b, "The speaker is %s.\n", speaker)
	}
	fmt.Fprintf(&b, "Known horses: %s\n", joinNames(c.Horses))
	fmt.Fprintf(&b, "Known riders: %s\n\n", joinNames(c.Riders))

	b.WriteString("Fields:\n")
	b.WriteString("horseName: the horse the session was about, spelled exactly as in the known list when it clearly refers to one, otherwise as heard. Empty string if none.\n")
	b.WriteString("riderName: who rode, spelled as in the known list. Empty string if the speaker rode or nobody is named.\n")
	b.WriteString("workType: one code from the list below. Empty string if unclear.\n")
	b.WriteString("durationMinutes: whole minutes. 0 if not said.\n")
	b.WriteString("date: YYYY-MM-DD. Resolve words like yesterday or Tuesday against today. Empty string if not said.\n")
	if strictNotes {
		b.WriteString("notes: how the horse went, in the rider's own words with filler removed. Leave out the horse, rider, date, duration, and work type. Empty string if nothing else was said.\n")
	} else {
		b.WriteString("notes: what the rider said about the session, cleaned up. Empty string if nothing was said.\n")
	}
	if strictNotes {
		b.WriteString("\nIf several horses are mentioned, pick the one that was worked. Never invent details that were not spoken.\n")
	}

	b.WriteString("\nWork types:\n")
	writeLegend(&b)
	return b.String()
}

func voiceUser(c VoiceContext) string {
	return "Transcript:\n" + strings.TrimSpace(c.Transcript) + "\n"
}

func joinNames(cs []names.Candidate) string {
	if len(cs) == 0 {
		return "(none)"
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return strings.Join(out, ", ")
}
