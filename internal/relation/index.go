// Package relation provides the bipartite link index between the two sets.
package relation

import (
	"fmt"
	"slices"

	"github.com/raphaelgruber/relationships/internal/models"
)

// Mode controls how out-of-range link endpoints are handled at build time.
type Mode int

const (
	// ModeStrict rejects links whose endpoints fall outside their set.
	ModeStrict Mode = iota
	// ModePermissive skips such links; they never match any item.
	ModePermissive
)

func (m Mode) String() string {
	if m == ModePermissive {
		return "permissive"
	}
	return "strict"
}

// SkippedLink records a link dropped in permissive mode.
type SkippedLink struct {
	Position int         // Declaration position in the link list
	Link     models.Link // The offending link
}

// Index answers "which opposite-set items are linked to this item" in both
// directions. It is immutable after Build and safe to share.
type Index struct {
	sizeA, sizeB int
	aToB         [][]int
	bToA         [][]int
	links        []models.Link
	skipped      []SkippedLink
}

// Build indexes links between a set of sizeA items and a set of sizeB items.
// Partner order follows link declaration order and duplicates are kept.
func Build(links []models.Link, sizeA, sizeB int, mode Mode) (*Index, error) {
	if sizeA < 0 || sizeB < 0 {
		return nil, fmt.Errorf("%w: negative set size (a=%d, b=%d)", models.ErrInvalidConfiguration, sizeA, sizeB)
	}

	idx := &Index{
		sizeA: sizeA,
		sizeB: sizeB,
		aToB:  make([][]int, sizeA),
		bToA:  make([][]int, sizeB),
		links: make([]models.Link, 0, len(links)),
	}

	for pos, l := range links {
		if l.A < 0 || l.A >= sizeA || l.B < 0 || l.B >= sizeB {
			if mode == ModeStrict {
				return nil, fmt.Errorf("%w: link %d %s out of range (set a has %d items, set b has %d)",
					models.ErrInvalidConfiguration, pos, l, sizeA, sizeB)
			}
			idx.skipped = append(idx.skipped, SkippedLink{Position: pos, Link: l})
			continue
		}
		idx.aToB[l.A] = append(idx.aToB[l.A], l.B)
		idx.bToA[l.B] = append(idx.bToA[l.B], l.A)
		idx.links = append(idx.links, l)
	}

	return idx, nil
}

// PartnersOf returns the opposite-set indices linked to index in set.
// The result is empty when nothing matches or index is unknown.
func (x *Index) PartnersOf(set models.SetID, index int) []int {
	var adj [][]int
	switch set {
	case models.SetA:
		adj = x.aToB
	case models.SetB:
		adj = x.bToA
	default:
		return nil
	}
	if index < 0 || index >= len(adj) {
		return nil
	}
	return slices.Clone(adj[index])
}

// Degree returns the number of links declared on index in set.
func (x *Index) Degree(set models.SetID, index int) int {
	return len(x.PartnersOf(set, index))
}

// Size returns the number of items the index was built for in set.
func (x *Index) Size(set models.SetID) int {
	switch set {
	case models.SetA:
		return x.sizeA
	case models.SetB:
		return x.sizeB
	default:
		return 0
	}
}

// Links returns the indexed links in declaration order.
func (x *Index) Links() []models.Link {
	return slices.Clone(x.links)
}

// Skipped returns the links dropped in permissive mode.
func (x *Index) Skipped() []SkippedLink {
	return slices.Clone(x.skipped)
}
