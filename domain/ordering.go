package domain

import (
	"slices"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Rankable is an item that holds a rank within a grouping key.
type Rankable interface {
	Key() string
	Group() string
	SetGroup(string)
	Rank() *int
	SetRank(int)
	IsPinned() bool
}

// OrderUpdate assigns an explicit rank to one item.
type OrderUpdate struct {
	ID    string `json:"id"`
	Order *int   `json:"order"`
}

// displayLess orders pinned items first, then by rank. Items without a rank
// sort after every ranked item.
func displayLess[T Rankable](a, b T) bool {
	if a.IsPinned() != b.IsPinned() {
		return a.IsPinned()
	}
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra == nil:
		return false
	case rb == nil:
		return true
	}
	return *ra < *rb
}

// SortForDisplay sorts items of one group in place, keeping ties in input order.
func SortForDisplay[T Rankable](items []T) {
	sort.SliceStable(items, func(i, j int) bool { return displayLess(items[i], items[j]) })
}

// Move places moving at index within the members of targetGroup and
// renumbers the whole resulting sequence 0..n-1. members holds the items
// currently in the target group; the moving item is ignored if present.
// The returned slice is the group in its new order.
func Move[T Rankable](moving T, members []T, targetGroup string, index int) []T {
	group := make([]T, 0, len(members)+1)
	for _, m := range members {
		if m.Key() == moving.Key() {
			continue
		}
		group = append(group, m)
	}
	SortForDisplay(group)
	index = max(0, min(index, len(group)))
	group = slices.Insert(group, index, moving)
	moving.SetGroup(targetGroup)
	for i, it := range group {
		it.SetRank(i)
	}
	return group
}

// ApplyOrders assigns the requested ranks to the matching items and returns
// how many were applied. Unknown ids and updates without an order are skipped.
func ApplyOrders[T Rankable](items []T, updates []OrderUpdate) int {
	byKey := make(map[string]T, len(items))
	for _, it := range items {
		byKey[it.Key()] = it
	}
	applied := 0
	for _, u := range updates {
		it, ok := byKey[u.ID]
		if !ok || u.Order == nil {
			continue
		}
		it.SetRank(*u.Order)
		applied++
	}
	return applied
}

// SortContacts orders contacts pinned first, then by name using the collation
// rules of tag.
func SortContacts(contacts []*Contact, tag language.Tag) {
	col := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		return col.CompareString(a.Name, b.Name) < 0
	})
}
