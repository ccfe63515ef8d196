package models

// BudgetMode identifies which time-limit shape is configured for a profile
type BudgetMode string

const (
	BudgetModeCategory BudgetMode = "category"
	BudgetModeSimple   BudgetMode = "simple"
	BudgetModeNone     BudgetMode = "none"
)

// CategoryBudget carries used/remaining minutes for one budget bucket.
// A zero EffectiveLimit means the bucket is unmetered: RemainingSec is -1
// and Exceeded is always false.
type CategoryBudget struct {
	EffectiveLimit int     `json:"limit_min"`
	UsedMin        float64 `json:"used_min"`
	RemainingMin   float64 `json:"remaining_min"`
	RemainingSec   int     `json:"remaining_sec"`
	Exceeded       bool    `json:"exceeded"`
}

// BudgetInfo is the result of a budget computation for a profile/day.
// In simple mode Flat is set; in category mode Categories holds the edu and
// fun buckets.
type BudgetInfo struct {
	Mode       BudgetMode                  `json:"mode"`
	Flat       *CategoryBudget             `json:"flat,omitempty"`
	Categories map[Category]CategoryBudget `json:"categories,omitempty"`
}

// ForCategory returns the bucket a video of the given category draws from.
func (b *BudgetInfo) ForCategory(cat Category) (CategoryBudget, bool) {
	if b == nil {
		return CategoryBudget{}, false
	}
	if b.Mode == BudgetModeSimple && b.Flat != nil {
		return *b.Flat, true
	}
	cb, ok := b.Categories[cat]
	return cb, ok
}
