// Package idgen generates entry identifiers.
package idgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Strategy tells which source produced an ID.
type Strategy string

const (
	// StrategyUUID means a random (version 4) UUID from a secure source.
	StrategyUUID Strategy = "uuid"
	// StrategyFallback means the secure source failed and a weaker pseudo-random ID was used.
	StrategyFallback Strategy = "fallback"
)

// Generator produces unique entry IDs.
type Generator interface {
	NewID() (string, Strategy)
}

// Random generates UUIDs and falls back to a math/rand based ID in the UUID layout.
type Random struct {
	newUUID func() (uuid.UUID, error)
}

var _ Generator = (*Random)(nil)

// NewRandom returns the default generator.
func NewRandom() *Random {
	return &Random{newUUID: uuid.NewRandom}
}

// NewID returns a new identifier and the strategy that produced it.
func (r *Random) NewID() (string, Strategy) {
	id, err := r.newUUID()
	if err == nil {
		return id.String(), StrategyUUID
	}
	return fallbackID(), StrategyFallback
}

func fallbackID() string {
	a, b := rand.Uint64(), rand.Uint64()
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uint32(a>>32), uint16(a>>16), uint16(a)&0x0fff|0x4000,
		uint16(b>>48)&0x3fff|0x8000, b&0xffffffffffff)
}

// Sequence hands out predictable IDs, used in tests.
type Sequence struct {
	Prefix string
	next   int
}

var _ Generator = (*Sequence)(nil)

func (s *Sequence) NewID() (string, Strategy) {
	s.next++
	return fmt.Sprintf("%s%d", s.Prefix, s.next), StrategyUUID
}
