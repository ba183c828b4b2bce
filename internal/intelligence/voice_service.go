package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/names"
	"github.com/alexanderramin/barnlog/internal/prompt"
	"github.com/alexanderramin/barnlog/internal/service"
)

// VoiceRequest is one spoken note plus the names the speaker may use.
type VoiceRequest struct {
	Audio       llm.Audio
	Horses      []names.Candidate
	Riders      []names.Candidate
	SpeakerName string
	// SpeakerID is used as the rider when the note names nobody.
	SpeakerID string
	Today     time.Time
}

// ParsedSession is a draft session for the client to confirm. Fields the
// note did not mention are left zero.
type ParsedSession struct {
	HorseID         string          `json:"horseId,omitempty"`
	HorseName       string          `json:"horseName,omitempty"`
	RiderID         string          `json:"riderId,omitempty"`
	RiderName       string          `json:"riderName,omitempty"`
	WorkType        domain.WorkType `json:"workType,omitempty"`
	DurationMinutes int             `json:"durationMinutes,omitempty"`
	Date            string          `json:"date,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Transcript      string          `json:"transcript"`
	Warnings        []string        `json:"warnings,omitempty"`
	Usage           llm.Usage       `json:"usage"`
}

// VoiceService turns recorded notes into structured session drafts.
type VoiceService interface {
	Parse(ctx context.Context, req VoiceRequest) (*ParsedSession, error)
}

type voiceService struct {
	transcriber llm.Transcriber
	completer   llm.Completer
	version     prompt.VoiceVersion
	observer    service.UseCaseObserver
}

func NewVoiceService(
	transcriber llm.Transcriber,
	completer llm.Completer,
	version prompt.VoiceVersion,
	observers ...service.UseCaseObserver,
) VoiceService {
	return &voiceService{
		transcriber: transcriber,
		completer:   completer,
		version:     version,
		observer:    service.ObserverOrNoop(observers),
	}
}

func (s *voiceService) Parse(ctx context.Context, req VoiceRequest) (_ *ParsedSession, err error) {
	fields := map[string]any{"prompt_version": s.version.String(), "audio_bytes": len(req.Audio.Data)}
	defer service.Observe(ctx, s.observer, "parse-voice", time.Now(), fields, &err)

	transcript, err := s.transcriber.Transcribe(ctx, req.Audio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript", llm.ErrUpstream)
	}

	p, err := prompt.RenderVoice(s.version, prompt.VoiceContext{
		Transcript:  transcript,
		Horses:      req.Horses,
		Riders:      req.Riders,
		SpeakerName: req.SpeakerName,
		Today:       req.Today,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.completer.Complete(ctx, llm.CompletionRequest{
		Task:         llm.TaskVoiceParse,
		SystemPrompt: p.System,
		UserMessage:  p.User,
		Schema:       &prompt.VoiceSchema,
	})
	if err != nil {
		return nil, err
	}

	out, err := llm.ExtractJSON[prompt.VoiceOutput](resp.Content, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrUpstream, err)
	}

	parsed := &ParsedSession{
		HorseName:  strings.TrimSpace(out.HorseName),
		RiderName:  strings.TrimSpace(out.RiderName),
		Notes:      strings.TrimSpace(out.Notes),
		Transcript: transcript,
		Usage:      resp.Usage,
	}
	parsed.WorkType, parsed.Warnings = workType(out.WorkType, parsed.Warnings)
	parsed.DurationMinutes, parsed.Warnings = duration(out.DurationMinutes, parsed.Warnings)
	parsed.Date, parsed.Warnings = sessionDate(out.Date, parsed.Warnings)

	parsed.HorseID, parsed.Warnings = resolve("horse", parsed.HorseName, req.Horses, parsed.Warnings)
	if parsed.RiderName == "" {
		parsed.RiderID = req.SpeakerID
		parsed.RiderName = strings.TrimSpace(req.SpeakerName)
	} else {
		parsed.RiderID, parsed.Warnings = resolve("rider", parsed.RiderName, req.Riders, parsed.Warnings)
	}

	fields["warnings"] = len(parsed.Warnings)
	return parsed, nil
}

func workType(raw string, warnings []string) (domain.WorkType, []string) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", warnings
	}
	wt := domain.WorkType(raw)
	if !wt.Valid() {
		return "", append(warnings, fmt.Sprintf("unrecognized work type %q", raw))
	}
	return wt, warnings
}

func duration(minutes int, warnings []string) (int, []string) {
	switch {
	case minutes <= 0:
		return 0, warnings
	case minutes > domain.MaxSessionMinutes:
		return 0, append(warnings, fmt.Sprintf("duration of %d minutes is out of range", minutes))
	}
	return minutes, warnings
}

func sessionDate(raw string, warnings []string) (string, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", warnings
	}
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return "", append(warnings, fmt.Sprintf("could not read date %q", raw))
	}
	return raw, warnings
}

func resolve(kind, name string, candidates []names.Candidate, warnings []string) (string, []string) {
	if name == "" {
		return "", warnings
	}
	id, err := names.Resolve(name, candidates)
	switch {
	case errors.Is(err, names.ErrAmbiguous):
		return "", append(warnings, fmt.Sprintf("more than one %s is named %q", kind, name))
	case err != nil:
		return "", append(warnings, err.Error())
	case id == "":
		return "", append(warnings, fmt.Sprintf("no known %s named %q", kind, name))
	}
	return id, warnings
}
