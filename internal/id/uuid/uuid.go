// Package uuid generates and validates request identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates UUID v7 request ids, which sort by creation time in logs.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string, falling back to a random UUID4 when the
// v7 source fails.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err == nil {
		return id.String(), nil
	}
	fallback, ferr := uuid.NewRandom()
	if ferr != nil {
		return "", fmt.Errorf("generate request id: %w", err)
	}
	return fallback.String(), nil
}

// Valid reports whether s is a well-formed UUID. Inbound request ids are only
// trusted when they are.
func (Generator) Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
