package interfaces

import "tennis-market-cache/internal/domain/classification"

// SnapshotStore holds the active classification snapshot.
type SnapshotStore interface {
	// Current returns the active snapshot. Never nil, never blocks.
	Current() *classification.Snapshot

	// Swap installs next and returns the snapshot it replaced.
	Swap(next *classification.Snapshot) *classification.Snapshot
}
