package models

// Item is one icon in a set. It is encoded as part of its ItemSet.
type Item struct {
	Label       string
	Description string // Longer text shown on selection
	IconIndex   int    // Sprite cell, resolved at construction
}

// NewItems builds items from plain labels, using each label's position as
// its sprite cell.
func NewItems(labels ...string) []Item {
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Item{Label: label, IconIndex: i}
	}
	return items
}

// Text returns the description if present, otherwise the label.
func (i Item) Text() string {
	if i.Description != "" {
		return i.Description
	}
	return i.Label
}
