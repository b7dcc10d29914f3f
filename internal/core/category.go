package core

// Category classifies an action template. The set is closed: every lookup
// that lands outside it resolves to CategoryOther.
type Category string

const (
	CategoryExercise Category = "exercise"
	CategoryStudy    Category = "study"
	CategoryOther    Category = "other"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryExercise, CategoryStudy, CategoryOther}

// DefaultCategory is where unrecognized or unmapped actions end up.
const DefaultCategory = CategoryOther

func (c Category) IsValid() bool {
	switch c {
	case CategoryExercise, CategoryStudy, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory folds a raw label onto the closed set. Unknown or empty
// labels resolve to the default category rather than failing.
func ParseCategory(raw string) Category {
	if c := Category(raw); c.IsValid() {
		return c
	}
	return DefaultCategory
}
