// Package classification holds the immutable token classification data and
// the pure rules used to build it.
package classification

import (
	"time"

	"tennis-market-cache/internal/domain/entities"
)

// Snapshot is a complete token -> category mapping as of one refresh cycle.
// A Snapshot is never mutated after Build returns it, so it can be shared by
// any number of readers without locking.
type Snapshot struct {
	categories map[string]entities.Category
	counts     [entities.CategoryCount]int
	cycleID    string
	source     string
	builtAt    time.Time
}

var emptySnapshot = &Snapshot{categories: map[string]entities.Category{}}

// EmptySnapshot returns the shared snapshot with no entries.
func EmptySnapshot() *Snapshot {
	return emptySnapshot
}

// CategoryOf returns the category of tokenID. Tokens absent from the snapshot
// are CategoryUnclassified.
func (s *Snapshot) CategoryOf(tokenID string) entities.Category {
	if s == nil {
		return entities.CategoryUnclassified
	}
	return s.categories[tokenID]
}

// Contains reports whether tokenID was present in the source data.
func (s *Snapshot) Contains(tokenID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.categories[tokenID]
	return ok
}

// Len returns the number of classified tokens.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.categories)
}

// Count returns the number of tokens in category c.
func (s *Snapshot) Count(c entities.Category) int {
	if s == nil || !c.Valid() {
		return 0
	}
	return s.counts[c]
}

// CycleID identifies the refresh cycle that produced the snapshot.
func (s *Snapshot) CycleID() string {
	if s == nil {
		return ""
	}
	return s.cycleID
}

// Source names the market data source the snapshot was built from.
func (s *Snapshot) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// BuiltAt is the time Build was called. Zero for the empty snapshot.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}

// SnapshotBuilder accumulates entries for a new Snapshot. It is not safe for
// concurrent use; one refresh cycle owns one builder.
type SnapshotBuilder struct {
	categories map[string]entities.Category
	cycleID    string
	source     string
	skipped    int
}

// NewSnapshotBuilder creates a builder sized for roughly sizeHint tokens.
func NewSnapshotBuilder(cycleID, source string, sizeHint int) *SnapshotBuilder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &SnapshotBuilder{
		categories: make(map[string]entities.Category, sizeHint),
		cycleID:    cycleID,
		source:     source,
	}
}

// Add records the category of a token. If the token was already added with a
// different category, tennis wins so that the wider buffer is applied.
func (b *SnapshotBuilder) Add(tokenID string, c entities.Category) {
	if tokenID == "" {
		b.skipped++
		return
	}
	if !c.Valid() {
		c = entities.CategoryUnclassified
	}
	if prev, ok := b.categories[tokenID]; ok && prev == entities.CategoryTennis {
		return
	}
	b.categories[tokenID] = c
}

// AddRecord classifies a record with classifier and adds it. Invalid records
// are skipped and counted.
func (b *SnapshotBuilder) AddRecord(classifier *Classifier, record *entities.MarketRecord) {
	if !record.Valid() {
		b.skipped++
		return
	}
	b.Add(record.TokenID, classifier.Classify(record))
}

// Skipped returns how many records were dropped as malformed.
func (b *SnapshotBuilder) Skipped() int {
	return b.skipped
}

// Build freezes the accumulated entries into a Snapshot. The builder keeps no
// reference to the returned map.
func (b *SnapshotBuilder) Build() *Snapshot {
	frozen := make(map[string]entities.Category, len(b.categories))
	var counts [entities.CategoryCount]int
	for token, c := range b.categories {
		frozen[token] = c
		counts[c]++
	}

	return &Snapshot{
		categories: frozen,
		counts:     counts,
		cycleID:    b.cycleID,
		source:     b.source,
		builtAt:    time.Now(),
	}
}

// NewSnapshot is a convenience for building a snapshot from a ready map.
func NewSnapshot(cycleID, source string, entries map[string]entities.Category) *Snapshot {
	b := NewSnapshotBuilder(cycleID, source, len(entries))
	for token, c := range entries {
		b.Add(token, c)
	}
	return b.Build()
}
