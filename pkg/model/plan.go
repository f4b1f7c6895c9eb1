package model

// BundlePlan is an ordered, immutable list of units prospectively packed together.
//
// A plan only lives in memory, until a manifest is committed for it.
type BundlePlan struct {
	units []ArchiveUnit
	size  int64
}

// NewBundlePlan builds a plan from an ordered list of units. The input slice is copied.
func NewBundlePlan(units ...ArchiveUnit) BundlePlan {
	p := BundlePlan{units: make([]ArchiveUnit, len(units))}
	copy(p.units, units)
	for _, u := range units {
		p.size += u.Size
	}
	return p
}

// Units returns a copy of the units in this plan, in order
func (p BundlePlan) Units() []ArchiveUnit {
	units := make([]ArchiveUnit, len(p.units))
	copy(units, p.units)
	return units
}

// IDs of the units in this plan, in order
func (p BundlePlan) IDs() []string {
	ids := make([]string, 0, len(p.units))
	for _, u := range p.units {
		ids = append(ids, u.ID)
	}
	return ids
}

// Size is the total size in bytes of the plan
func (p BundlePlan) Size() int64 { return p.size }

// Len is the number of units in the plan
func (p BundlePlan) Len() int { return len(p.units) }

// IsEmpty plan?
func (p BundlePlan) IsEmpty() bool { return len(p.units) == 0 }
