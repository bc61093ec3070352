package logging

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDGenerator generates unique request IDs
type RequestIDGenerator struct {
	prefix string
}

// NewRequestIDGenerator creates a new request ID generator
func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{prefix: prefix}
}

// Generate creates a new unique request ID.
// Format: {prefix}_{uuid without dashes}
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateShort creates a shorter ID for space-constrained contexts
func (g *RequestIDGenerator) GenerateShort() string {
	id := uuid.New()
	return g.prefix + "_" + strings.ReplaceAll(id.String(), "-", "")[:8]
}

var defaultGenerator = NewRequestIDGenerator("req")

// GenerateRequestID generates a request ID using the default generator
func GenerateRequestID() string {
	return defaultGenerator.Generate()
}
