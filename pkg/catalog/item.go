// Package catalog turns raw shop search pages into typed product records.
package catalog

import "github.com/pyrowatch/pyrowatch/pkg/rules"

// Availability is the abstract stock state derived from availability text.
// It is never stored on its own; recompute it with State so text and state
// cannot drift apart.
type Availability int

const (
	Unknown Availability = iota
	InStock
	SoldOut
)

func (a Availability) String() string {
	switch a {
	case InStock:
		return "in stock"
	case SoldOut:
		return "sold out"
	default:
		return "unknown"
	}
}

// UnknownStock is the placeholder availability text for product blocks
// missing a stock element.
const UnknownStock = "UNKNOWN"

// Item is one classified catalog product. Title is the identity key across
// runs: two scrapes refer to the same product iff titles match exactly.
type Item struct {
	Title  string
	Stock  string // raw availability text, e.g. "In Stock (5)"
	Link   string
	Family string
	Brand  string
	Price  string
}

// State derives the availability state from raw availability text.
func State(rs *rules.Ruleset, stockText string) Availability {
	if stockText == "" || stockText == UnknownStock {
		return Unknown
	}
	if rs.SoldOut(stockText) {
		return SoldOut
	}
	return InStock
}
