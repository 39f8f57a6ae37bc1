package models

import "slices"

// FullOpacity is the opacity of active items.
const FullOpacity = 1.0

// HighlightDecision is the render instruction for one selection.
// It is derived per event and never stored.
type HighlightDecision struct {
	Selection  Selection `json:"selection"`
	ActiveA    []int     `json:"active_a"`    // Active set A indices, ordered
	ActiveB    []int     `json:"active_b"`    // Active set B indices, ordered
	Text       string    `json:"text"`        // Description to display
	DimOpacity float64   `json:"dim_opacity"` // Opacity of inactive items
}

// Active returns the active indices for set.
func (d HighlightDecision) Active(set SetID) []int {
	switch set {
	case SetA:
		return d.ActiveA
	case SetB:
		return d.ActiveB
	default:
		return nil
	}
}

// IsActive reports whether item i of set is highlighted.
func (d HighlightDecision) IsActive(set SetID, i int) bool {
	return slices.Contains(d.Active(set), i)
}

// Opacity returns the opacity the renderer should apply to item i of set.
func (d HighlightDecision) Opacity(set SetID, i int) float64 {
	if d.IsActive(set, i) {
		return FullOpacity
	}
	return d.DimOpacity
}
