package models

import (
	"encoding/json"
	"fmt"
)

// Link declares that item A in set A corresponds to item B in set B.
// Links are configuration data; many links may share an endpoint.
type Link struct {
	A int
	B int
}

// Endpoint returns the link's index on the given side.
func (l Link) Endpoint(set SetID) int {
	if set == SetB {
		return l.B
	}
	return l.A
}

func (l Link) String() string {
	return fmt.Sprintf("(%d,%d)", l.A, l.B)
}

// MarshalJSON encodes the link as a two element array, the form used in
// widget files.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{l.A, l.B})
}

// UnmarshalJSON decodes a two element array.
func (l *Link) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("link must be a pair of indices: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("link must be a pair of indices, got %d values", len(pair))
	}
	l.A, l.B = pair[0], pair[1]
	return nil
}
