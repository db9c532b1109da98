// Package id provides centralized ID generation for the client.
//
// IDs are ULIDs with type-specific prefixes (handle_*, visit_*, deck_*,
// conn_*) so resource handles, screen visits, presentation decks, and
// bridge connections are distinguishable in logs and cannot be mixed up
// at compile time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HandleID identifies a registered poller or stream handle.
type HandleID string

// VisitID identifies one navigation onto a screen.
type VisitID string

// DeckID identifies an uploaded presentation deck.
type DeckID string

// ConnID identifies a bridge WebSocket connection.
type ConnID string

const (
	HandlePrefix = "handle"
	VisitPrefix  = "visit"
	DeckPrefix   = "deck"
	ConnPrefix   = "conn"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a ULID generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewHandleID generates a new resource-handle ID.
func NewHandleID() HandleID {
	return HandleID(Default().GenerateWithPrefix(HandlePrefix))
}

// NewVisitID generates a new screen-visit ID.
func NewVisitID() VisitID {
	return VisitID(Default().GenerateWithPrefix(VisitPrefix))
}

// NewDeckID generates a new presentation-deck ID.
func NewDeckID() DeckID {
	return DeckID(Default().GenerateWithPrefix(DeckPrefix))
}

// NewConnID generates a new bridge-connection ID.
func NewConnID() ConnID {
	return ConnID(Default().GenerateWithPrefix(ConnPrefix))
}
