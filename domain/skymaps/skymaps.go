// Package skymaps provides per-slice-point annotation: a map provider
// decorates each slice point with auxiliary sky data (dust, stellar
// density, ...) before metrics run.
package skymaps

import (
	"fmt"
	"sort"
)

// Point is the descriptive identity of one slice: its coordinates plus any
// annotations added by map providers during slicer setup.
type Point map[string]interface{}

// Provider annotates slice points with auxiliary data.
type Provider interface {
	// Name returns the provider's registered type name.
	Name() string
	// Annotate adds this provider's keys to a slice point in place.
	Annotate(p Point)
}

// factory builds a provider with its default configuration.
type factory func() Provider

var registry = map[string]factory{}

// Register installs a provider factory under a type name. Called from
// package init functions at process start; metrics can then require a map
// by name without this package knowing the concrete type.
func Register(name string, fn func() Provider) {
	registry[name] = fn
}

// New instantiates a registered provider by type name.
func New(name string) (Provider, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no map provider registered under %q", name)
	}
	return fn(), nil
}

// Registered returns the registered provider names, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SameSet reports whether two provider lists cover the same set of map
// types, ignoring order and duplicates. Neither input is mutated.
func SameSet(a, b []Provider) bool {
	setA := make(map[string]bool, len(a))
	for _, p := range a {
		setA[p.Name()] = true
	}
	setB := make(map[string]bool, len(b))
	for _, p := range b {
		setB[p.Name()] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for name := range setA {
		if !setB[name] {
			return false
		}
	}
	return true
}
