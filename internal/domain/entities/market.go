package entities

import "strings"

// MarketRecord is one tradable token together with the event metadata needed
// to classify it.
type MarketRecord struct {
	TokenID    string   `json:"token_id"`
	MarketID   string   `json:"market_id"`
	EventID    string   `json:"event_id"`
	EventTitle string   `json:"event_title"`
	Question   string   `json:"question"`
	Sport      string   `json:"sport,omitempty"`
	SeriesSlug string   `json:"series_slug,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Active     bool     `json:"active"`
	Closed     bool     `json:"closed"`
}

// NewMarketRecord creates a record for a single token
func NewMarketRecord(tokenID, marketID, eventID string) *MarketRecord {
	return &MarketRecord{
		TokenID:  tokenID,
		MarketID: marketID,
		EventID:  eventID,
		Active:   true,
	}
}

// Valid reports whether the record carries a usable token identifier.
func (m *MarketRecord) Valid() bool {
	return m != nil && strings.TrimSpace(m.TokenID) != ""
}
