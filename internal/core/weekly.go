package core

// WeekDays is the fixed denominator of every weekly tally.
const WeekDays = 7

// CategoryTally is one row of the weekly scoreboard: the number of
// distinct days with at least one completion in a category.
type CategoryTally struct {
	Days  int `json:"days"`
	Total int `json:"total"`
}

// CategoryLookup resolves an action id to its category. Implementations
// return false for unknown ids; the aggregator folds those into the
// default category.
type CategoryLookup func(actionID string) (Category, bool)

// LookupFromTemplates builds a CategoryLookup over a template slice.
func LookupFromTemplates(templates []ActionTemplate) CategoryLookup {
	byID := make(map[string]Category, len(templates))
	for _, t := range templates {
		byID[t.ID] = ParseCategory(string(t.Category))
	}
	return func(actionID string) (Category, bool) {
		c, ok := byID[actionID]
		return c, ok
	}
}

// WeeklyCategoryTally reduces completion records, already filtered to one
// Monday..Sunday week, into per-category distinct-day counts. A record
// whose category cannot be resolved, or resolves outside the closed set,
// counts toward the default category. Several completions in the same
// category on the same day count as a single day. Every known category
// appears in the result, with zero days when absent from the input, and
// the output does not depend on record order.
func WeeklyCategoryTally(records []CompletionRecord, categoryOf CategoryLookup) map[Category]CategoryTally {
	days := make(map[Category]map[string]struct{}, len(Categories))
	for _, c := range Categories {
		days[c] = make(map[string]struct{})
	}

	for _, r := range records {
		cat := DefaultCategory
		if categoryOf != nil {
			if c, ok := categoryOf(r.ActionID); ok && c.IsValid() {
				cat = c
			}
		}
		days[cat][r.DateKey] = struct{}{}
	}

	out := make(map[Category]CategoryTally, len(Categories))
	for _, c := range Categories {
		out[c] = CategoryTally{Days: len(days[c]), Total: WeekDays}
	}
	return out
}
