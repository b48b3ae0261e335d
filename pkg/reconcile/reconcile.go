// Package reconcile diffs the current scrape against the previous
// snapshot and produces the typed change log.
package reconcile

import "github.com/pyrowatch/pyrowatch/pkg/catalog"

// Kind labels one change record.
type Kind string

const (
	KindNew       Kind = "new"
	KindRestocked Kind = "restocked"
	KindSoldOut   Kind = "soldout"
	KindChanged   Kind = "changed"
	KindRemoved   Kind = "removed"
)

// Change is one per-title transition between two cycles. Transient: it is
// produced and consumed within a single cycle, only the history table keeps
// a copy.
type Change struct {
	Kind     Kind
	Title    string
	Previous string
	Current  string
	Link     string
}

// Reconcile compares the previous stock-text map against the current item
// map and returns the change records plus the updated map to persist.
//
// The sold/not-sold boolean drives the transition kind: a text change that
// flips it is a restock or sell-out, a text change that does not (quantity
// wording) is KindChanged. Titles that vanished from the scrape are pruned
// immediately and reported as KindRemoved; callers decide whether removals
// are alert-worthy (they are not, by default).
//
// Records follow the iteration order of current; callers needing a stable
// order sort afterwards.
func Reconcile(soldOut func(string) bool, prev map[string]string, current map[string]catalog.Item) ([]Change, map[string]string) {
	updated := make(map[string]string, len(current))
	var changes []Change

	for title, item := range current {
		updated[title] = item.Stock

		before, seen := prev[title]
		if !seen {
			changes = append(changes, Change{Kind: KindNew, Title: title, Current: item.Stock, Link: item.Link})
			continue
		}
		if before == item.Stock {
			continue
		}

		kind := KindChanged
		switch {
		case soldOut(before) && !soldOut(item.Stock):
			kind = KindRestocked
		case !soldOut(before) && soldOut(item.Stock):
			kind = KindSoldOut
		}
		changes = append(changes, Change{Kind: kind, Title: title, Previous: before, Current: item.Stock, Link: item.Link})
	}

	for title, before := range prev {
		if _, still := current[title]; !still {
			changes = append(changes, Change{Kind: KindRemoved, Title: title, Previous: before})
		}
	}

	return changes, updated
}
