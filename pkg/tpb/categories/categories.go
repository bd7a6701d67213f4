// Package categories holds the site's category taxonomy.
// The table is generated at build time, embedded in the binary and parsed once
// when the package initialises. It is never mutated afterwards, so lookups are
// safe from any number of goroutines without locking.
package categories

//go:generate go run ../../../cmd/gencategories -o categories.json

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// TopLevelSub is the sub-category name given to top-level codes (100, 200, ...).
	TopLevelSub = "All"

	unknownName = "Unknown"
)

//go:embed categories.json
var embedded []byte

// Unknown is returned for ids the table does not know about.
var Unknown = Category{ID: 0, Top: unknownName, Sub: unknownName}

// Category is a two-level classification bound to the site's numeric code.
type Category struct {
	ID  int    `json:"id"`
	Top string `json:"top"`
	Sub string `json:"sub"`
}

// Name renders the category the way the site labels it, e.g. "Video: Movies".
func (c Category) Name() string {
	if c.Sub == "" || c.Sub == TopLevelSub {
		return c.Top
	}
	return c.Top + ": " + c.Sub
}

// IsKnown reports whether the category came from the table.
func (c Category) IsKnown() bool {
	return c.ID != 0 && c.Top != "" && c.Top != unknownName
}

// IsTopLevel reports whether the code designates a whole top-level group.
func (c Category) IsTopLevel() bool {
	return c.IsKnown() && c.ID%100 == 0
}

func (c Category) String() string {
	return fmt.Sprintf("%d %s", c.ID, c.Name())
}

// File is the on-disk layout of the generated table.
type File struct {
	Version    string   `json:"version"`
	Source     string   `json:"source,omitempty"`
	Categories []Group  `json:"categories"`
	Trackers   []string `json:"trackers"`
}

// Group is a top-level category with its sub-categories.
type Group struct {
	Code          int     `json:"code"`
	Name          string  `json:"name"`
	Subcategories []Entry `json:"subcategories"`
}

// Entry is a single sub-category code.
type Entry struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type pairKey struct {
	top string
	sub string
}

func newPairKey(top, sub string) pairKey {
	return pairKey{
		top: strings.ToLower(strings.TrimSpace(top)),
		sub: strings.ToLower(strings.TrimSpace(sub)),
	}
}

// Table is an immutable id <-> category mapping.
type Table struct {
	version  string
	ordered  []Category
	byID     map[int]Category
	byPair   map[pairKey]int
	trackers []string
}

// Parse builds a table from the JSON layout described by File.
func Parse(data []byte) (*Table, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode category table: %w", err)
	}
	return FromFile(f)
}

// FromFile validates f and builds a table from it.
// Ids and (top, sub) pairs must be unique, and every sub-category code must
// sit in its parent's hundred range.
func FromFile(f File) (*Table, error) {
	t := &Table{
		version:  f.Version,
		byID:     make(map[int]Category),
		byPair:   make(map[pairKey]int),
		trackers: append([]string(nil), f.Trackers...),
	}

	for _, group := range f.Categories {
		if group.Code <= 0 || group.Code%100 != 0 {
			return nil, fmt.Errorf("top-level category %q has invalid code %d", group.Name, group.Code)
		}
		if err := t.add(Category{ID: group.Code, Top: group.Name, Sub: TopLevelSub}); err != nil {
			return nil, err
		}
		for _, sub := range group.Subcategories {
			if sub.Code/100 != group.Code/100 || sub.Code == group.Code {
				return nil, fmt.Errorf("sub-category %q (%d) is outside %q (%d)", sub.Name, sub.Code, group.Name, group.Code)
			}
			if err := t.add(Category{ID: sub.Code, Top: group.Name, Sub: sub.Name}); err != nil {
				return nil, err
			}
		}
	}

	if len(t.ordered) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}
	return t, nil
}

func (t *Table) add(c Category) error {
	if strings.TrimSpace(c.Top) == "" || strings.TrimSpace(c.Sub) == "" {
		return fmt.Errorf("category %d has an empty name", c.ID)
	}
	if _, exists := t.byID[c.ID]; exists {
		return fmt.Errorf("duplicate category id %d", c.ID)
	}
	key := newPairKey(c.Top, c.Sub)
	if other, exists := t.byPair[key]; exists {
		return fmt.Errorf("category %q is registered twice (%d and %d)", c.Name(), other, c.ID)
	}
	t.byID[c.ID] = c
	t.byPair[key] = c.ID
	t.ordered = append(t.ordered, c)
	return nil
}

// LookupByID never fails: unknown ids resolve to Unknown.
func (t *Table) LookupByID(id int) Category {
	if c, ok := t.byID[id]; ok {
		return c
	}
	return Unknown
}

// LookupByCategory returns the id registered for a (top, sub) pair.
// Names are matched case-insensitively.
func (t *Table) LookupByCategory(top, sub string) (int, bool) {
	id, ok := t.byPair[newPairKey(top, sub)]
	return id, ok
}

// All returns every category in table order.
func (t *Table) All() []Category {
	return append([]Category(nil), t.ordered...)
}

// Trackers returns the announce URLs the site puts in its magnet links.
func (t *Table) Trackers() []string {
	return append([]string(nil), t.trackers...)
}

// Version identifies the generated data set.
func (t *Table) Version() string {
	return t.version
}

// Len is the number of registered ids.
func (t *Table) Len() int {
	return len(t.ordered)
}

var defaultTable = mustParse(embedded)

func mustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("categories: embedded table is invalid: %v", err))
	}
	return t
}

// Default returns the embedded table.
func Default() *Table { return defaultTable }

// LookupByID resolves id against the embedded table.
func LookupByID(id int) Category { return defaultTable.LookupByID(id) }

// LookupByCategory resolves a (top, sub) pair against the embedded table.
func LookupByCategory(top, sub string) (int, bool) { return defaultTable.LookupByCategory(top, sub) }

// All lists the embedded table.
func All() []Category { return defaultTable.All() }

// Trackers lists the embedded tracker URLs.
func Trackers() []string { return defaultTable.Trackers() }
