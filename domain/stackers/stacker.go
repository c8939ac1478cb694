// Package stackers derives new columns from existing ones before metric
// evaluation. A stacker adds or overwrites its declared columns in place;
// two stackers with the same name but different configuration would clobber
// each other's output, so the compatibility check keeps them apart.
package stackers

import "skymetrics/domain/table"

// Stacker is a column-derivation unit.
type Stacker interface {
	// Name identifies the producing unit; stackers with equal names write
	// the same output columns.
	Name() string
	// ColsAdded lists the columns this stacker produces.
	ColsAdded() []string
	// ColsRequired lists the input columns this stacker needs.
	ColsRequired() []string
	// Run adds the derived columns to the table in place.
	Run(rows *table.Table) error
	// Equal reports whether another stacker is the same type with the same
	// configuration.
	Equal(other Stacker) bool
}
