package intelligence

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/narrative"
	"github.com/alexanderramin/barnlog/internal/prompt"
)

// maxNarrateAttempts bounds completion calls per summary, including the
// corrective retry.
const maxNarrateAttempts = 2

type narration struct {
	Text      string
	Model     string
	Attempts  int
	Usage     llm.Usage
	Sanitized bool
}

// narrate runs the summary prompt and validates the prose. An invalid
// first draft is retried once with the issues appended as a correction.
// A second invalid draft is stripped of formatting and accepted. A failed
// call on either attempt is returned as is.
func narrate(ctx context.Context, completer llm.Completer, p prompt.Prompt) (*narration, error) {
	req := llm.CompletionRequest{
		Task:         llm.TaskSummary,
		SystemPrompt: p.System,
		UserMessage:  p.User,
		Schema:       &prompt.SummarySchema,
	}

	var out narration
	var draft string
	for out.Attempts < maxNarrateAttempts {
		resp, err := completer.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		out.Attempts++
		out.Model = resp.Model
		out.Usage = out.Usage.Add(resp.Usage)

		draft = summaryText(resp.Content)
		result := narrative.Validate(draft)
		if result.Valid {
			out.Text = draft
			return &out, nil
		}
		req.Corrections = []string{correction(result.Issues)}
	}

	out.Text = strings.TrimSpace(narrative.Strip(draft))
	out.Sanitized = true
	return &out, nil
}

// summaryText pulls the summary field out of strict-mode output. Models
// that ignore the schema still return usable prose, so raw content is the
// fallback.
func summaryText(content string) string {
	parsed, err := llm.ExtractJSON(content, func(o prompt.SummaryOutput) error {
		if strings.TrimSpace(o.Summary) == "" {
			return errors.New("summary is empty")
		}
		return nil
	})
	if err != nil {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(parsed.Summary)
}

func correction(issues []string) string {
	var b strings.Builder
	b.WriteString("Your previous draft broke these rules:\n")
	for _, issue := range issues {
		b.WriteString(issue)
		b.WriteString("\n")
	}
	b.WriteString("Write the recap again from scratch and follow every style rule.")
	return b.String()
}
