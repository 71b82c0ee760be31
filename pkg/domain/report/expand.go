package report

import "sort"

// ExpandSet tracks which specifications show their explanation.
// The zero value is an empty set ready to use.
type ExpandSet struct {
	names map[string]struct{}
}

// NewExpandSet returns a set holding names.
func NewExpandSet(names ...string) ExpandSet {
	var s ExpandSet
	for _, n := range names {
		s.add(n)
	}
	return s
}

// Toggle adds name if absent and removes it if present.
func (s *ExpandSet) Toggle(name string) {
	if s.Has(name) {
		delete(s.names, name)
		return
	}
	s.add(name)
}

// Toggled returns a copy of the set with name toggled, leaving s unchanged.
func (s ExpandSet) Toggled(name string) ExpandSet {
	c := NewExpandSet(s.Names()...)
	c.Toggle(name)
	return c
}

// Has reports whether name is expanded.
func (s ExpandSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of expanded names.
func (s ExpandSet) Len() int {
	return len(s.names)
}

// Names returns the expanded names in sorted order.
func (s ExpandSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *ExpandSet) add(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[name] = struct{}{}
}
