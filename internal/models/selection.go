package models

import "fmt"

// Selection is the hovered or clicked item, or none.
// The zero value is the empty selection.
type Selection struct {
	Set   SetID `json:"set"`
	Index int   `json:"index"`
}

// None returns the empty selection.
func None() Selection {
	return Selection{}
}

// Select returns a selection of item index in set.
func Select(set SetID, index int) Selection {
	return Selection{Set: set, Index: index}
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool {
	return s.Set == SetNone
}

func (s Selection) String() string {
	if s.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s[%d]", s.Set, s.Index)
}
