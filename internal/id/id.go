// Package id generates the opaque identifiers used for places and users.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each entity kind.
const (
	PlacePrefix = "place"
	UserPrefix  = "user"
	TokenPrefix = "token"
)

// Generate creates a prefixed NanoID, e.g. "place-V1StGXR8_Z5jdHi6B-myT".
// Fails only when the system cannot supply enough entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure.
// Intended for seeding and tests.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
