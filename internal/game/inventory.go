package game

import (
	"sort"
	"strings"
)

// Inventory is an unordered multiset of item names.
type Inventory struct {
	counts map[string]int
}

func NewInventory(items ...string) *Inventory {
	inv := &Inventory{counts: make(map[string]int)}
	inv.Add(items...)
	return inv
}

func (inv *Inventory) Add(items ...string) {
	for _, item := range items {
		inv.counts[item]++
	}
}

// Remove takes one copy of item out of the inventory.
func (inv *Inventory) Remove(item string) bool {
	n := inv.counts[item]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(inv.counts, item)
	} else {
		inv.counts[item] = n - 1
	}
	return true
}

func (inv *Inventory) Has(item string) bool {
	return inv.counts[item] > 0
}

func (inv *Inventory) Count(item string) int {
	return inv.counts[item]
}

func (inv *Inventory) Len() int {
	total := 0
	for _, n := range inv.counts {
		total += n
	}
	return total
}

// Items lists every copy, sorted.
func (inv *Inventory) Items() []string {
	items := make([]string, 0, inv.Len())
	for item, n := range inv.counts {
		for i := 0; i < n; i++ {
			items = append(items, item)
		}
	}
	sort.Strings(items)
	return items
}

func (inv *Inventory) String() string {
	if inv.Len() == 0 {
		return "nothing"
	}
	return strings.Join(inv.Items(), ", ")
}
