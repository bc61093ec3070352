package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tennis-market-cache/internal/domain/entities"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name   string
		record *entities.MarketRecord
		want   entities.Category
	}{
		{
			name:   "nil record",
			record: nil,
			want:   entities.CategoryUnclassified,
		},
		{
			name:   "sport field",
			record: &entities.MarketRecord{TokenID: "1", Sport: " Tennis "},
			want:   entities.CategoryTennis,
		},
		{
			name:   "tennis tag",
			record: &entities.MarketRecord{TokenID: "1", Tags: []string{"sports", "tennis"}},
			want:   entities.CategoryTennis,
		},
		{
			name:   "atp tag uppercase",
			record: &entities.MarketRecord{TokenID: "1", Tags: []string{"ATP"}},
			want:   entities.CategoryTennis,
		},
		{
			name:   "tag label with spaces",
			record: &entities.MarketRecord{TokenID: "1", Tags: []string{"Davis Cup"}},
			want:   entities.CategoryTennis,
		},
		{
			name:   "series slug prefix",
			record: &entities.MarketRecord{TokenID: "1", SeriesSlug: "wta-miami-open"},
			want:   entities.CategoryTennis,
		},
		{
			name:   "other sport",
			record: &entities.MarketRecord{TokenID: "1", Sport: "soccer", Tags: []string{"epl"}, SeriesSlug: "epl-2026"},
			want:   entities.CategoryUnclassified,
		},
		{
			name:   "title mentions tennis but metadata does not",
			record: &entities.MarketRecord{TokenID: "1", EventTitle: "Will a tennis player win Sports Personality?"},
			want:   entities.CategoryUnclassified,
		},
		{
			name:   "token id looks like tennis",
			record: &entities.MarketRecord{TokenID: "tennis-atp-123"},
			want:   entities.CategoryUnclassified,
		},
		{
			name:   "atpx is not atp",
			record: &entities.MarketRecord{TokenID: "1", Tags: []string{"atpx"}, SeriesSlug: "atpx-cup"},
			want:   entities.CategoryUnclassified,
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.record))
		})
	}
}

func TestClassifier_ExtraTags(t *testing.T) {
	record := &entities.MarketRecord{TokenID: "1", Tags: []string{"Laver Cup"}}

	assert.Equal(t, entities.CategoryUnclassified, NewClassifier().Classify(record))
	assert.Equal(t, entities.CategoryTennis, NewClassifier("laver-cup", " ").Classify(record))
}
