package domain

import "time"

// HorseSummary is a generated narrative recap of a horse's recent work.
// SignalsJSON holds the derived signals the recap was seeded from.
type HorseSummary struct {
	ID               string
	HorseID          string
	Text             string
	SignalsJSON      string
	PromptVersion    string
	Model            string
	Attempts         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	GeneratedAt      time.Time
}
