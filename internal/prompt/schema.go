package prompt

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/llm"
)

// SummaryOutput is the shape SummarySchema constrains the model to.
type SummaryOutput struct {
	Summary string `json:"summary"`
}

// VoiceOutput is the shape VoiceSchema constrains the model to. Strict
// mode requires every field, so "unknown" is an empty string or zero.
type VoiceOutput struct {
	HorseName       string `json:"horseName"`
	RiderName       string `json:"riderName"`
	WorkType        string `json:"workType"`
	DurationMinutes int    `json:"durationMinutes"`
	Date            string `json:"date"`
	Notes           string `json:"notes"`
}

// SummarySchema is the strict response contract for horse summaries.
var SummarySchema = llm.Schema{
	Name: "horse_summary",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"summary": {Type: jsonschema.String, Description: "The recap as plain prose paragraphs."},
		},
		Required:             []string{"summary"},
		AdditionalProperties: false,
	},
}

// VoiceSchema is the strict response contract for voice extraction.
var VoiceSchema = llm.Schema{
	Name: "voice_session",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"horseName":       {Type: jsonschema.String},
			"riderName":       {Type: jsonschema.String},
			"workType":        {Type: jsonschema.String, Enum: workTypeEnum()},
			"durationMinutes": {Type: jsonschema.Integer},
			"date":            {Type: jsonschema.String, Description: "YYYY-MM-DD or empty."},
			"notes":           {Type: jsonschema.String},
		},
		Required:             []string{"horseName", "riderName", "workType", "durationMinutes", "date", "notes"},
		AdditionalProperties: false,
	},
}

func workTypeEnum() []string {
	codes := make([]string, 0, len(domain.WorkTypes)+1)
	for _, wt := range domain.WorkTypes {
		codes = append(codes, string(wt))
	}
	return append(codes, "")
}
