package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller mistakes such as an unknown work type or a
// rider from another barn.
var ErrInvalidInput = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
