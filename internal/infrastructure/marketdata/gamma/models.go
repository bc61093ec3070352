package gamma

import (
	"encoding/json"
	"fmt"
	"strings"

	"tennis-market-cache/internal/domain/entities"
)

// Event representa un evento de la API de eventos, con sus mercados
type Event struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	SeriesSlug string   `json:"seriesSlug"`
	Sport      string   `json:"sport"`
	Active     bool     `json:"active"`
	Closed     bool     `json:"closed"`
	Tags       []Tag    `json:"tags"`
	Markets    []Market `json:"markets"`
}

// Tag is an event label. Both slug and label are free text upstream.
type Tag struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Market representa un mercado binario dentro de un evento. ClobTokenIDs
// llega como un array JSON dentro de un string, e.g. "[\"123\",\"456\"]".
type Market struct {
	ID           string `json:"id"`
	ConditionID  string `json:"conditionId"`
	Question     string `json:"question"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
	ClobTokenIDs string `json:"clobTokenIds"`
}

// TokenIDs decodes ClobTokenIDs. An empty field yields no tokens.
func (m *Market) TokenIDs() ([]string, error) {
	raw := strings.TrimSpace(m.ClobTokenIDs)
	if raw == "" {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: clobTokenIds for market %s: %v", ErrMalformedPayload, m.ID, err)
	}
	return ids, nil
}

// tagStrings returns slugs and labels so the classifier can match either.
func (e *Event) tagStrings() []string {
	out := make([]string, 0, len(e.Tags)*2)
	for _, t := range e.Tags {
		if t.Slug != "" {
			out = append(out, t.Slug)
		}
		if t.Label != "" && !strings.EqualFold(t.Label, t.Slug) {
			out = append(out, t.Label)
		}
	}
	return out
}

// Records flattens the event into one MarketRecord per token. Markets whose
// token list cannot be decoded are counted in skipped.
func (e *Event) Records() (records []*entities.MarketRecord, skipped int) {
	tags := e.tagStrings()

	for i := range e.Markets {
		m := &e.Markets[i]
		ids, err := m.TokenIDs()
		if err != nil {
			skipped++
			continue
		}

		for _, id := range ids {
			r := entities.NewMarketRecord(id, m.ID, e.ID)
			r.EventTitle = e.Title
			r.Question = m.Question
			r.Sport = e.Sport
			r.SeriesSlug = e.SeriesSlug
			r.Tags = tags
			r.Active = m.Active
			r.Closed = m.Closed
			records = append(records, r)
		}
	}

	return records, skipped
}
