package testutil

import (
	"time"

	"github.com/skosovsky/reservy"
)

// NewTestRegistry returns a Registry with a long timeout and panic recovery,
// suitable for tests that drive real tool handlers.
func NewTestRegistry(tools ...reservy.Tool) *reservy.Registry {
	reg := reservy.NewRegistry(
		reservy.WithDefaultTimeout(30*time.Second),
		reservy.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
