package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/names"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/signals"
)

// maxAudioBytes matches the transcription endpoint's upload limit.
const maxAudioBytes = 25 << 20

// maxVoiceBodyBytes caps the whole multipart body: the audio plus room for
// the context field and part headers.
const maxVoiceBodyBytes = maxAudioBytes + 1<<20

var validate = validator.New()

type summaryJSON struct {
	ID            string          `json:"id"`
	HorseID       string          `json:"horseId"`
	Text          string          `json:"text"`
	Signals       json.RawMessage `json:"signals"`
	PromptVersion string          `json:"promptVersion"`
	Model         string          `json:"model"`
	Attempts      int             `json:"attempts"`
	Usage         llm.Usage       `json:"usage"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

func toSummaryJSON(s *domain.HorseSummary) summaryJSON {
	sig := json.RawMessage(s.SignalsJSON)
	if !json.Valid(sig) {
		sig = json.RawMessage("null")
	}
	return summaryJSON{
		ID:            s.ID,
		HorseID:       s.HorseID,
		Text:          s.Text,
		Signals:       sig,
		PromptVersion: s.PromptVersion,
		Model:         s.Model,
		Attempts:      s.Attempts,
		Usage: llm.Usage{
			PromptTokens:     s.PromptTokens,
			CompletionTokens: s.CompletionTokens,
			TotalTokens:      s.TotalTokens,
		},
		GeneratedAt: s.GeneratedAt,
	}
}

// scopedHorse loads the :id horse if it belongs to the caller's barn.
func (a *api) scopedHorse(c *gin.Context) (*domain.Horse, bool) {
	h, err := a.Horses.Get(c.Request.Context(), mustIdentity(c).BarnID, c.Param("id"))
	if err != nil {
		respond(c, a.Logger, err)
		return nil, false
	}
	return h, true
}

type signalsResponse struct {
	HorseID  string          `json:"horseId"`
	Signals  signals.Signals `json:"signals"`
	Sessions int             `json:"sessions"`
	Eligible bool            `json:"eligibleForSummary"`
}

func (a *api) horseSignals(c *gin.Context) {
	h, ok := a.scopedHorse(c)
	if !ok {
		return
	}
	p, err := a.Summaries.Preview(c.Request.Context(), h.ID, a.Now())
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusOK, signalsResponse{HorseID: h.ID, Signals: p.Signals, Sessions: p.RowCount, Eligible: p.Eligible})
}

func (a *api) latestSummary(c *gin.Context) {
	h, ok := a.scopedHorse(c)
	if !ok {
		return
	}
	s, err := a.Summaries.Latest(c.Request.Context(), h.ID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"summary": nil})
		return
	}
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": toSummaryJSON(s)})
}

func (a *api) generateSummary(c *gin.Context) {
	h, ok := a.scopedHorse(c)
	if !ok {
		return
	}
	out, err := a.Summaries.Generate(c.Request.Context(), h, a.Now())
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"summary": toSummaryJSON(out.Summary), "sanitized": out.Sanitized})
}

// voiceContext is the JSON carried in the "context" form field.
type voiceContext struct {
	Horses      []names.Candidate `json:"horses" validate:"dive"`
	Riders      []names.Candidate `json:"riders" validate:"dive"`
	SpeakerName string            `json:"speakerName" validate:"max=80"`
	// Today is the caller's local date; the server date is used when empty.
	Today string `json:"today" validate:"omitempty,datetime=2006-01-02"`
}

func (a *api) parseVoice(c *gin.Context) {
	if c.Request.ContentLength > maxVoiceBodyBytes {
		respond(c, a.Logger, errAudioTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxVoiceBodyBytes)

	audio, err := readAudio(c)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	vc, err := readVoiceContext(c)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}

	today := a.Now()
	if vc.Today != "" {
		today, _ = time.Parse(time.DateOnly, vc.Today)
	}
	id := mustIdentity(c)
	parsed, err := a.Voice.Parse(c.Request.Context(), intelligence.VoiceRequest{
		Audio:       audio,
		Horses:      vc.Horses,
		Riders:      vc.Riders,
		SpeakerName: vc.SpeakerName,
		SpeakerID:   id.RiderID,
		Today:       today,
	})
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusOK, parsed)
}

var errAudioTooLarge = badInput(CodeInvalidRequest, "The audio recording is too large.")

func readAudio(c *gin.Context) (llm.Audio, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return llm.Audio{}, errAudioTooLarge
		}
		return llm.Audio{}, badInput(CodeMissingAudio, "An audio recording is required.")
	}
	if fh.Size == 0 {
		return llm.Audio{}, badInput(CodeMissingAudio, "The audio recording is empty.")
	}
	if fh.Size > maxAudioBytes {
		return llm.Audio{}, errAudioTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return llm.Audio{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return llm.Audio{}, err
	}
	return llm.Audio{Filename: fh.Filename, Data: data}, nil
}

func readVoiceContext(c *gin.Context) (voiceContext, error) {
	var vc voiceContext
	raw, ok := c.GetPostForm("context")
	if !ok || strings.TrimSpace(raw) == "" {
		return vc, badInput(CodeMissingContext, "A context field is required.")
	}
	if err := json.Unmarshal([]byte(raw), &vc); err != nil {
		return vc, badInput(CodeInvalidRequest, "The context field is not valid JSON.")
	}
	if err := validate.Struct(vc); err != nil {
		return vc, badInput(CodeInvalidRequest, err.Error())
	}
	return vc, nil
}
