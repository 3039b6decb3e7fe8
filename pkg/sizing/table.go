// Package sizing maps product categories to the size labels they are sold in.
package sizing

import (
	"sort"
	"strings"
)

// FallbackKey names the generic entry. Lookup never returns it.
const FallbackKey = "default"

// Table is an immutable category to sizes mapping. The zero value is empty.
type Table struct {
	sizes map[string][]string
	lower map[string]string // lowercased category -> canonical key
}

// NewTable copies entries, so later changes to the input do not leak in.
func NewTable(entries map[string][]string) Table {
	t := Table{
		sizes: make(map[string][]string, len(entries)),
		lower: make(map[string]string, len(entries)),
	}
	for category, labels := range entries {
		t.sizes[category] = append([]string(nil), labels...)
		if category == FallbackKey {
			continue
		}
		t.lower[strings.ToLower(category)] = category
	}
	return t
}

// DefaultTable is the storefront's sports merchandise size chart.
func DefaultTable() Table {
	apparel := []string{"XS", "S", "M", "L", "XL", "XXL"}
	return NewTable(map[string][]string{
		"Football Shirts": apparel,
		"Cricket Shirts":  apparel,
		"Tracksuits":      apparel,
		"Shorts":          {"S", "M", "L", "XL", "XXL"},
		"Football Boots":  {"6", "7", "8", "9", "10", "11", "12"},
		"Cricket Shoes":   {"6", "7", "8", "9", "10", "11", "12"},
		"Gloves":          {"S", "M", "L", "XL"},
		"Caps":            {"One Size"},
		"Socks":           {"Free Size"},
		"Footballs":       {"3", "4", "5"},
		"Cricket Bats":    {"Size 4", "Size 5", "Size 6", "Harrow", "Short Handle", "Long Handle"},
		"Accessories":     {"One Size"},
		FallbackKey:       {"S", "M", "L", "XL"},
	})
}

// Lookup returns the sizes for category: exact match first, then a
// case-insensitive one. Unknown categories get an empty list, never the
// fallback entry.
func (t Table) Lookup(category string) []string {
	if category != FallbackKey {
		if labels, ok := t.sizes[category]; ok {
			return clone(labels)
		}
	}
	if key, ok := t.lower[strings.ToLower(strings.TrimSpace(category))]; ok {
		return clone(t.sizes[key])
	}
	return []string{}
}

// Fallback returns the generic size list.
func (t Table) Fallback() []string {
	return clone(t.sizes[FallbackKey])
}

// Categories returns every category except the fallback, sorted.
func (t Table) Categories() []string {
	out := make([]string, 0, len(t.lower))
	for _, key := range t.lower {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func clone(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}
