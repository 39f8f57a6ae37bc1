package highlight

import (
	"fmt"

	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/relation"
	"github.com/samber/lo"
)

// Resolve computes the highlight decision for sel. It has no side effects:
// identical arguments always produce an identical decision.
//
// With no selection every item is active and the text is the widget
// description. Otherwise only the selected item and its linked partners
// are active and the text is the selected item's description or label.
func Resolve(cfg Config, idx *relation.Index, sel models.Selection) (models.HighlightDecision, error) {
	if idx == nil {
		return models.HighlightDecision{}, fmt.Errorf("%w: no relationship index", models.ErrInvalidConfiguration)
	}

	if sel.IsNone() {
		return models.HighlightDecision{
			Selection:  sel,
			ActiveA:    lo.Range(cfg.SetA.Len()),
			ActiveB:    lo.Range(cfg.SetB.Len()),
			Text:       cfg.Description,
			DimOpacity: cfg.Opacity(),
		}, nil
	}

	set, ok := cfg.Set(sel.Set)
	if !ok {
		return models.HighlightDecision{}, fmt.Errorf("%w: unknown set %d", models.ErrInvalidSelection, sel.Set)
	}
	if !set.Contains(sel.Index) {
		return models.HighlightDecision{}, fmt.Errorf("%w: index %d out of range for set %s (%d items)",
			models.ErrInvalidSelection, sel.Index, sel.Set, set.Len())
	}

	selected := []int{sel.Index}
	partners := lo.Uniq(idx.PartnersOf(sel.Set, sel.Index))

	decision := models.HighlightDecision{
		Selection:  sel,
		Text:       set.Items[sel.Index].Text(),
		DimOpacity: cfg.Opacity(),
	}
	if sel.Set == models.SetA {
		decision.ActiveA, decision.ActiveB = selected, partners
	} else {
		decision.ActiveA, decision.ActiveB = partners, selected
	}
	return decision, nil
}
