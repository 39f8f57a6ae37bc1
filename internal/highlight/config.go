// Package highlight turns selections into highlight decisions for the two
// related sets and owns per-widget configuration.
package highlight

import (
	"fmt"
	"math"
	"sync"

	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/relation"
)

// DefaultDimOpacity is the opacity of inactive items unless overridden.
const DefaultDimOpacity = 0.20

var (
	defaultsMu        sync.RWMutex
	defaultDimOpacity = DefaultDimOpacity
)

// SetDefaultDimOpacity overrides the dim opacity used by configs that do
// not set one. Widgets pick up the default when they are created.
func SetDefaultDimOpacity(v float64) error {
	if err := checkOpacity(v); err != nil {
		return err
	}
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultDimOpacity = v
	return nil
}

// DefaultOpacity returns the current package default dim opacity.
func DefaultOpacity() float64 {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultDimOpacity
}

// SelectFunc is called with the selected set, index and resolved
// description after a discrete select action. Its result is ignored.
type SelectFunc func(set models.SetID, index int, description string)

// Config describes one widget: two item sets, the links between them and
// display options.
type Config struct {
	SetA        models.ItemSet
	SetB        models.ItemSet
	Links       []models.Link
	Description string        // Text shown when nothing is selected
	DimOpacity  *float64      // nil means the package default
	Mode        relation.Mode // Link validation mode
	OnSelect    SelectFunc
}

// Set returns the item set for id.
func (c Config) Set(id models.SetID) (models.ItemSet, bool) {
	switch id {
	case models.SetA:
		return c.SetA, true
	case models.SetB:
		return c.SetB, true
	default:
		return models.ItemSet{}, false
	}
}

// Opacity returns the effective dim opacity.
func (c Config) Opacity() float64 {
	if c.DimOpacity != nil {
		return *c.DimOpacity
	}
	return DefaultOpacity()
}

// Validate checks the options that do not depend on the link index.
func (c Config) Validate() error {
	if c.DimOpacity != nil {
		if err := checkOpacity(*c.DimOpacity); err != nil {
			return err
		}
	}
	return nil
}

// withDefaults pins the package default opacity into the config.
func (c Config) withDefaults() Config {
	if c.DimOpacity == nil {
		v := DefaultOpacity()
		c.DimOpacity = &v
	}
	return c
}

func checkOpacity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: dim opacity %v outside [0,1]", models.ErrInvalidConfiguration, v)
	}
	return nil
}

// Update is a partial reconfiguration. Every non-nil field replaces the
// current value wholesale; nested sets and link lists are never merged.
type Update struct {
	SetA        *models.ItemSet `json:"set1,omitempty"`
	SetB        *models.ItemSet `json:"set2,omitempty"`
	Links       *[]models.Link  `json:"links,omitempty"`
	Description *string         `json:"description,omitempty"`
	DimOpacity  *float64        `json:"dim_opacity,omitempty"`
	Strict      *bool           `json:"strict,omitempty"`

	OnSelect      SelectFunc `json:"-"`
	ClearOnSelect bool       `json:"-"` // Remove the current callback
}

// TouchesIndex reports whether applying u requires rebuilding the index.
func (u Update) TouchesIndex() bool {
	return u.SetA != nil || u.SetB != nil || u.Links != nil || u.Strict != nil
}

// Merge returns c with u applied.
func (c Config) Merge(u Update) Config {
	if u.SetA != nil {
		c.SetA = *u.SetA
	}
	if u.SetB != nil {
		c.SetB = *u.SetB
	}
	if u.Links != nil {
		c.Links = *u.Links
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.DimOpacity != nil {
		v := *u.DimOpacity
		c.DimOpacity = &v
	}
	if u.Strict != nil {
		c.Mode = relation.ModeStrict
		if !*u.Strict {
			c.Mode = relation.ModePermissive
		}
	}
	if u.ClearOnSelect {
		c.OnSelect = nil
	}
	if u.OnSelect != nil {
		c.OnSelect = u.OnSelect
	}
	return c
}
