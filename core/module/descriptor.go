package module

import (
	"sort"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/router"
)

// Descriptor pairs a loaded module instance with the route table it
// registered during Init. It is what the dispatch coordinator sees.
type Descriptor struct {
	mod      Module
	router   *router.Router
	priority int
}

func (d *Descriptor) Name() string { return d.mod.Name() }

func (d *Descriptor) Priority() int { return d.priority }

// Route runs the module's matching handlers for the request carried by mc.
func (d *Descriptor) Route(mc *dispatch.ModuleContext) error {
	return d.router.Route(mc)
}

// Instance returns the underlying module. Used by the reload diff and by
// tests; request handling goes through Route.
func (d *Descriptor) Instance() Module { return d.mod }

// Set is one immutable generation of loaded modules. The registry swaps
// whole Sets atomically so in-flight requests keep the generation they
// started with.
type Set struct {
	descriptors []*Descriptor
	byName      map[string]*Descriptor
}

func newSet(descriptors []*Descriptor) *Set {
	// Higher priority first; declaration order breaks ties.
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].priority > descriptors[j].priority
	})
	byName := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name()] = d
	}
	return &Set{descriptors: descriptors, byName: byName}
}

// Routed returns the set's modules in dispatch order.
func (s *Set) Routed() []dispatch.RoutedModule {
	out := make([]dispatch.RoutedModule, len(s.descriptors))
	for i, d := range s.descriptors {
		out[i] = d
	}
	return out
}

func (s *Set) Get(name string) (*Descriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Names returns module names in dispatch order.
func (s *Set) Names() []string {
	out := make([]string, len(s.descriptors))
	for i, d := range s.descriptors {
		out[i] = d.Name()
	}
	return out
}

func (s *Set) Len() int { return len(s.descriptors) }
