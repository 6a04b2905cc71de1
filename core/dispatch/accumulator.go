package dispatch

import (
	"slices"
	"sort"
	"sync"
)

// BlockAccumulator is the per-request store of named rendered fragments.
// Handlers from concurrently dispatched modules append into it; the theme
// composition layer reads it after the join barrier. Within one bucket the
// arrival order of fragments is preserved. Safe for concurrent use.
type BlockAccumulator struct {
	mu      sync.Mutex
	buckets map[string][]string
}

// NewBlockAccumulator creates an empty accumulator.
func NewBlockAccumulator() *BlockAccumulator {
	return &BlockAccumulator{buckets: make(map[string][]string)}
}

// Append adds a fragment to the named bucket, creating it on first use.
func (a *BlockAccumulator) Append(name, fragment string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets[name] = append(a.buckets[name], fragment)
}

// Get returns the fragments accumulated under name in arrival order.
// An absent bucket yields an empty slice, never an error.
func (a *BlockAccumulator) Get(name string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.buckets[name])
}

// Names returns all bucket names in lexical order.
func (a *BlockAccumulator) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.buckets))
	for name := range a.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MenuEntry is one navigation entry contributed by a module. Entries are
// ordered by weight (then name) at read time, so the completion order of
// concurrent handlers does not leak into rendered navigation.
type MenuEntry struct {
	Name   string
	Label  string
	Path   string
	Weight int
}

// MenuAccumulator is the per-request store of navigation entries keyed by
// menu region. A region behaves as an ordered set: an entry replaces an
// earlier entry with the same Name. Safe for concurrent use.
type MenuAccumulator struct {
	mu      sync.Mutex
	regions map[string][]MenuEntry
}

// NewMenuAccumulator creates an empty accumulator.
func NewMenuAccumulator() *MenuAccumulator {
	return &MenuAccumulator{regions: make(map[string][]MenuEntry)}
}

// Append adds an entry to the region, replacing any same-named entry.
func (a *MenuAccumulator) Append(region string, entry MenuEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := a.regions[region]
	for i := range entries {
		if entries[i].Name == entry.Name {
			entries[i] = entry
			return
		}
	}
	a.regions[region] = append(entries, entry)
}

// Get returns the region's entries sorted by weight, then name.
// An absent region yields an empty slice.
func (a *MenuAccumulator) Get(region string) []MenuEntry {
	a.mu.Lock()
	entries := slices.Clone(a.regions[region])
	a.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight < entries[j].Weight
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Regions returns all region names in lexical order.
func (a *MenuAccumulator) Regions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.regions))
	for name := range a.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
