package dto

import (
	"time"

	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/domain/entities"
)

// SnapshotMapper maneja la conversión entre el snapshot del dominio y DTOs
type SnapshotMapper struct {
	policy classification.BufferPolicy
}

// NewSnapshotMapper crea una nueva instancia del mapper
func NewSnapshotMapper(policy classification.BufferPolicy) *SnapshotMapper {
	return &SnapshotMapper{policy: policy}
}

// ToTokenResponse resuelve un token contra un único snapshot
func (m *SnapshotMapper) ToTokenResponse(snapshot *classification.Snapshot, tokenID string) *TokenResponse {
	category := snapshot.CategoryOf(tokenID)
	return &TokenResponse{
		TokenID:  tokenID,
		Category: category.String(),
		IsTennis: category == entities.CategoryTennis,
		Buffer:   m.policy.BufferDecimal(category).String(),
		CycleID:  snapshot.CycleID(),
	}
}

// ToSnapshotResponse convierte el snapshot activo y el estado del scheduler.
// status es nil para handles estáticos.
func (m *SnapshotMapper) ToSnapshotResponse(snapshot *classification.Snapshot, version uint64, status *services.RefreshStatus) *SnapshotResponse {
	categories := make(map[string]int, entities.CategoryCount)
	for _, c := range entities.AllCategories() {
		categories[c.String()] = snapshot.Count(c)
	}

	response := &SnapshotResponse{
		Size:       snapshot.Len(),
		Categories: categories,
		CycleID:    snapshot.CycleID(),
		Source:     snapshot.Source(),
		BuiltAt:    optionalTime(snapshot.BuiltAt()),
		Version:    version,
	}

	if status != nil {
		response.Refresh = &RefreshStatus{
			Running:             status.Running,
			Source:              status.Source,
			LastAttempt:         optionalTime(status.LastAttempt),
			LastSuccess:         optionalTime(status.LastSuccess),
			ConsecutiveFailures: status.ConsecutiveFailures,
			Escalated:           status.Escalated,
			LastError:           status.LastError,
		}
	}

	return response
}

// ToRefreshResponse convierte el resultado de un ciclo. err puede ser nil.
func (m *SnapshotMapper) ToRefreshResponse(result *services.RefreshResult, err error) *RefreshResponse {
	response := &RefreshResponse{}
	if result != nil {
		response.CycleID = result.CycleID
		response.Source = result.Source
		response.Trigger = result.Trigger
		response.Installed = result.Installed
		response.AcceptedShrink = result.AcceptedShrink
		response.Records = result.Records
		response.Skipped = result.Skipped
		response.Size = result.Size
		response.TennisTokens = result.TennisTokens
		response.PreviousSize = result.PreviousSize
		response.DurationMs = float64(result.Duration.Microseconds()) / 1000
	}
	if err != nil {
		response.Error = err.Error()
	}
	return response
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
