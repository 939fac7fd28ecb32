// Package id generates opaque identifiers for stored entities.
//
// Identifiers are random UUIDv4 values rendered as unpadded lowercase base32,
// so they are URL-safe and never depend on process-local counters.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator produces new entity identifiers.
type Generator interface {
	NewID() (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() (string, error)

// NewID implements Generator.
func (fn GeneratorFunc) NewID() (string, error) {
	return fn()
}

// Random is the default Generator backed by NewID.
var Random Generator = GeneratorFunc(NewID)

// NewID returns a new random identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// Sequence returns a Generator yielding the provided ids in order. It is
// intended for tests that need predictable identifiers.
func Sequence(ids ...string) Generator {
	next := 0
	return GeneratorFunc(func() (string, error) {
		if next >= len(ids) {
			return "", fmt.Errorf("id sequence exhausted after %d ids", len(ids))
		}
		value := ids[next]
		next++
		return value, nil
	})
}
