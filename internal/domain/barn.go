package domain

import "time"

type Barn struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Rider struct {
	ID        string
	BarnID    string
	Name      string
	CreatedAt time.Time
}

type Horse struct {
	ID        string
	BarnID    string
	Name      string
	CreatedAt time.Time
}

// BelongsTo reports whether the horse is stabled at the given barn.
func (h *Horse) BelongsTo(barnID string) bool {
	return h != nil && barnID != "" && h.BarnID == barnID
}
