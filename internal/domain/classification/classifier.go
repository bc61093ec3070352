package classification

import (
	"strings"

	"tennis-market-cache/internal/domain/entities"
)

// DefaultTennisTags are event tag slugs that mark an event as tennis.
var DefaultTennisTags = []string{
	"tennis",
	"atp",
	"wta",
	"itf",
	"atp-tour",
	"wta-tour",
	"atp-challenger",
	"davis-cup",
	"billie-jean-king-cup",
}

// tennisSeriesPrefixes match recurring series slugs such as "atp-indian-wells".
var tennisSeriesPrefixes = []string{"atp-", "wta-", "itf-", "tennis-"}

// Classifier decides the category of a market record from its event metadata.
// It never looks at the token identifier itself.
type Classifier struct {
	tennisTags map[string]struct{}
}

// NewClassifier creates a classifier recognising DefaultTennisTags plus any
// extra tag slugs.
func NewClassifier(extraTennisTags ...string) *Classifier {
	tags := make(map[string]struct{}, len(DefaultTennisTags)+len(extraTennisTags))
	for _, t := range DefaultTennisTags {
		tags[t] = struct{}{}
	}
	for _, t := range extraTennisTags {
		if t = normalizeTag(t); t != "" {
			tags[t] = struct{}{}
		}
	}
	return &Classifier{tennisTags: tags}
}

// Classify returns CategoryTennis when the record's sport, tags or series mark
// it as a tennis event and CategoryUnclassified otherwise.
func (c *Classifier) Classify(record *entities.MarketRecord) entities.Category {
	if record == nil {
		return entities.CategoryUnclassified
	}

	if strings.EqualFold(strings.TrimSpace(record.Sport), "tennis") {
		return entities.CategoryTennis
	}

	for _, tag := range record.Tags {
		if _, ok := c.tennisTags[normalizeTag(tag)]; ok {
			return entities.CategoryTennis
		}
	}

	series := strings.ToLower(strings.TrimSpace(record.SeriesSlug))
	for _, prefix := range tennisSeriesPrefixes {
		if strings.HasPrefix(series, prefix) {
			return entities.CategoryTennis
		}
	}

	return entities.CategoryUnclassified
}

// normalizeTag lowercases a tag label and turns spaces into dashes so that
// "Davis Cup" and "davis-cup" compare equal.
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.ReplaceAll(tag, " ", "-")
}
