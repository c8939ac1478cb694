package sweep

import "skymetrics/domain/skymaps"

// checkCompatible reports whether two bundles can be evaluated in one data
// pass. Compatible means: same constraint, equal slicers (same type AND
// same configuration, not merely same type), the same set of map types,
// and no two stackers that share a producing-unit name but differ in
// configuration (those would overwrite each other's output columns).
func checkCompatible(a, b *Bundle) bool {
	if a.Constraint != b.Constraint {
		return false
	}
	if !a.Slicer.Equal(b.Slicer) {
		return false
	}
	if !skymaps.SameSet(a.Maps, b.Maps) {
		return false
	}
	for _, sa := range a.Stackers {
		for _, sb := range b.Stackers {
			// Different names never collide; identical configuration is
			// deduplicated at evaluation time. Same name with different
			// configuration is the conflict.
			if sa.Name() == sb.Name() && !sa.Equal(sb) {
				return false
			}
		}
	}
	return true
}

// findCompatibleGroups partitions a constraint subset of bundles into
// groups whose members are pairwise compatible. A candidate must be checked
// against every member of a group, not just the first: stacker conflicts
// can be introduced by any later member, so compatibility does not
// propagate transitively.
func findCompatibleGroups(bundles []*Bundle) [][]*Bundle {
	var groups [][]*Bundle
	for _, b := range bundles {
		placed := false
		for gi, group := range groups {
			compatible := true
			for _, member := range group {
				if !checkCompatible(member, b) {
					compatible = false
					break
				}
			}
			if compatible {
				groups[gi] = append(group, b)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []*Bundle{b})
		}
	}
	return groups
}
