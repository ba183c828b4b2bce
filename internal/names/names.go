// Package names matches free-text names from model output against the
// caller's own horses and riders.
package names

import (
	"errors"
	"strings"
)

// ErrAmbiguous means more than one candidate shares the case-folded name.
var ErrAmbiguous = errors.New("name matches more than one candidate")

// Candidate is a known entity the caller may refer to by name.
type Candidate struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Resolve returns the ID of the single candidate whose name equals name
// under case folding. No fuzzy or partial matching is attempted. An empty
// name or no match returns "" with a nil error.
func Resolve(name string, candidates []Candidate) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	var found string
	for _, c := range candidates {
		if !strings.EqualFold(strings.TrimSpace(c.Name), name) {
			continue
		}
		if found != "" && found != c.ID {
			return "", ErrAmbiguous
		}
		found = c.ID
	}
	return found, nil
}
