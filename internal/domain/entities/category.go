package entities

import "strings"

// Category classifies a token's market by sport.
type Category uint8

const (
	// CategoryUnclassified is the zero value: anything the classifier did not
	// recognise, including tokens absent from the snapshot.
	CategoryUnclassified Category = iota
	CategoryTennis

	// categoryCount must stay last.
	categoryCount
)

// CategoryCount is the number of defined categories.
const CategoryCount = int(categoryCount)

var categoryNames = [categoryCount]string{
	CategoryUnclassified: "unclassified",
	CategoryTennis:       "tennis",
}

// String returns the lowercase category name.
func (c Category) String() string {
	if c >= categoryCount {
		return categoryNames[CategoryUnclassified]
	}
	return categoryNames[c]
}

// Valid reports whether c is a defined category.
func (c Category) Valid() bool {
	return c < categoryCount
}

// ParseCategory converts a category name into a Category. Unknown names map to
// CategoryUnclassified.
func ParseCategory(name string) Category {
	name = strings.TrimSpace(name)
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i)
		}
	}
	return CategoryUnclassified
}

// AllCategories returns every defined category in declaration order.
func AllCategories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}
