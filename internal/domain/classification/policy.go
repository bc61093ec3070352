package classification

import (
	"github.com/shopspring/decimal"

	"tennis-market-cache/internal/domain/entities"
)

// TennisBuffer is the minimum price buffer applied to tennis tokens.
var TennisBuffer = decimal.RequireFromString("0.01")

// BufferPolicy maps a category to the price buffer applied to its tokens.
// The float table is precomputed so lookups do not allocate.
type BufferPolicy struct {
	exact  [entities.CategoryCount]decimal.Decimal
	values [entities.CategoryCount]float64
}

// DefaultBufferPolicy returns the standing policy: 0.01 for tennis, 0.0 for
// everything else.
func DefaultBufferPolicy() BufferPolicy {
	var p BufferPolicy
	p.exact[entities.CategoryTennis] = TennisBuffer

	for i, d := range p.exact {
		p.values[i] = d.InexactFloat64()
	}
	return p
}

// Buffer returns the buffer for c. Undefined categories get 0.
func (p BufferPolicy) Buffer(c entities.Category) float64 {
	if !c.Valid() {
		return 0
	}
	return p.values[c]
}

// BufferDecimal returns the exact buffer for c.
func (p BufferPolicy) BufferDecimal(c entities.Category) decimal.Decimal {
	if !c.Valid() {
		return decimal.Zero
	}
	return p.exact[c]
}
