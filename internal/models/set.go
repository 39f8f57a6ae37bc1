// Package models defines the data structures shared by the relationship index,
// the highlight resolver and the renderers.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SetID identifies one of the two related sets.
type SetID int

const (
	SetNone SetID = iota // No set (empty selection)
	SetA                 // First set ("set1" in widget files)
	SetB                 // Second set ("set2" in widget files)
)

// Opposite returns the other set. SetNone has no opposite.
func (s SetID) Opposite() SetID {
	switch s {
	case SetA:
		return SetB
	case SetB:
		return SetA
	default:
		return SetNone
	}
}

// Valid reports whether s names one of the two sets.
func (s SetID) Valid() bool {
	return s == SetA || s == SetB
}

func (s SetID) String() string {
	switch s {
	case SetA:
		return "a"
	case SetB:
		return "b"
	default:
		return "none"
	}
}

// ParseSetID accepts "a"/"b" and the legacy numeric ids "1"/"2".
func ParseSetID(s string) (SetID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "1", "set1":
		return SetA, nil
	case "b", "2", "set2":
		return SetB, nil
	default:
		return SetNone, fmt.Errorf("unknown set %q (expected a or b)", s)
	}
}

// MarshalText encodes the set as "a", "b" or "none".
func (s SetID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes "a", "b", "1", "2" or "none".
func (s *SetID) UnmarshalText(text []byte) error {
	if strings.EqualFold(string(text), "none") || len(text) == 0 {
		*s = SetNone
		return nil
	}
	id, err := ParseSetID(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// Size is the pixel size of one sprite cell.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ItemSet is an ordered, immutable sequence of items.
// An item's position is its identity for links and selections.
// Its JSON form is the widget file form: image_size is [width, height],
// items are labels or {label, description, image_index} objects.
type ItemSet struct {
	Name      string
	Images    string // Sprite reference, opaque to the core
	ImageSize Size
	Items     []Item
}

type itemSetJSON struct {
	Name      string     `json:"name,omitempty"`
	Images    string     `json:"images,omitempty"`
	ImageSize []int      `json:"image_size,omitempty"`
	Items     []itemJSON `json:"items"`
}

type itemJSON struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	ImageIndex  *int   `json:"image_index,omitempty"`
}

// UnmarshalJSON accepts a bare string as shorthand for a label.
func (d *itemJSON) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		d.Label = label
		return nil
	}
	type plain itemJSON
	return decodeStrict(data, (*plain)(d))
}

// MarshalJSON writes the set with every item's sprite cell spelled out.
func (s ItemSet) MarshalJSON() ([]byte, error) {
	out := itemSetJSON{
		Name:   s.Name,
		Images: s.Images,
		Items:  make([]itemJSON, len(s.Items)),
	}
	if s.ImageSize != (Size{}) {
		out.ImageSize = []int{s.ImageSize.Width, s.ImageSize.Height}
	}
	for i, item := range s.Items {
		iconIndex := item.IconIndex
		out.Items[i] = itemJSON{Label: item.Label, Description: item.Description, ImageIndex: &iconIndex}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the file form. Items without image_index use their
// position as sprite cell.
func (s *ItemSet) UnmarshalJSON(data []byte) error {
	var in itemSetJSON
	if err := decodeStrict(data, &in); err != nil {
		return err
	}

	set := ItemSet{Name: in.Name, Images: in.Images, Items: make([]Item, len(in.Items))}
	switch len(in.ImageSize) {
	case 0:
	case 2:
		set.ImageSize = Size{Width: in.ImageSize[0], Height: in.ImageSize[1]}
	default:
		return fmt.Errorf("image_size must be [width, height], got %v", in.ImageSize)
	}
	for i, item := range in.Items {
		iconIndex := i
		if item.ImageIndex != nil {
			iconIndex = *item.ImageIndex
		}
		set.Items[i] = Item{Label: item.Label, Description: item.Description, IconIndex: iconIndex}
	}
	*s = set
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Len returns the number of items in the set.
func (s ItemSet) Len() int {
	return len(s.Items)
}

// Contains reports whether i is a valid index into the set.
func (s ItemSet) Contains(i int) bool {
	return i >= 0 && i < len(s.Items)
}

// IconOffset returns the horizontal sprite offset in pixels for item i.
func (s ItemSet) IconOffset(i int) int {
	if !s.Contains(i) {
		return 0
	}
	return s.Items[i].IconIndex * s.ImageSize.Width
}

// Labels returns the item labels in order.
func (s ItemSet) Labels() []string {
	labels := make([]string, len(s.Items))
	for i, item := range s.Items {
		labels[i] = item.Label
	}
	return labels
}
