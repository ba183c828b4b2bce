package domain

import "strings"

// WorkType is the category of work done in a session.
type WorkType string

const (
	WorkFlat         WorkType = "flat"
	WorkJumping      WorkType = "jumping"
	WorkPoles        WorkType = "poles"
	WorkHack         WorkType = "hack"
	WorkLunge        WorkType = "lunge"
	WorkGroundwork   WorkType = "groundwork"
	WorkConditioning WorkType = "conditioning"
	WorkOther        WorkType = "other"
)

// WorkTypes lists every work type in legend order.
var WorkTypes = []WorkType{
	WorkFlat,
	WorkJumping,
	WorkPoles,
	WorkHack,
	WorkLunge,
	WorkGroundwork,
	WorkConditioning,
	WorkOther,
}

var workTypeLabels = map[WorkType]string{
	WorkFlat:         "flatwork",
	WorkJumping:      "jumping",
	WorkPoles:        "pole work",
	WorkHack:         "hacking",
	WorkLunge:        "lunging",
	WorkGroundwork:   "groundwork",
	WorkConditioning: "conditioning",
	WorkOther:        "other work",
}

// Valid reports whether w is one of the known work types.
func (w WorkType) Valid() bool {
	_, ok := workTypeLabels[w]
	return ok
}

// Label returns the display label for w. Unknown codes are returned as-is.
func (w WorkType) Label() string {
	if l, ok := workTypeLabels[w]; ok {
		return l
	}
	return string(w)
}

// WorkTypeCodes returns the accepted codes joined for help text.
func WorkTypeCodes() string {
	codes := make([]string, len(WorkTypes))
	for i, w := range WorkTypes {
		codes[i] = string(w)
	}
	return strings.Join(codes, ", ")
}
