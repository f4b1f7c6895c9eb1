package core

import (
	"fmt"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/model"
)

// planAccumulator holds the bundle being filled while planning
type planAccumulator struct {
	closed  []model.BundlePlan
	open    []model.ArchiveUnit
	size    int64
	maxSize int64
}

func (a planAccumulator) flush() planAccumulator {
	if len(a.open) == 0 {
		return a
	}
	a.closed = append(a.closed, model.NewBundlePlan(a.open...))
	a.open = nil
	a.size = 0
	return a
}

func (a planAccumulator) add(u model.ArchiveUnit) planAccumulator {
	switch {
	case u.Size > a.maxSize:
		// an oversized unit is bundled alone: the open bundle is closed first to keep units in order
		a = a.flush()
		a.closed = append(a.closed, model.NewBundlePlan(u))
	case a.size+u.Size > a.maxSize:
		a = a.flush()
		a.open = []model.ArchiveUnit{u}
		a.size = u.Size
	default:
		a.open = append(a.open, u)
		a.size += u.Size
	}
	return a
}

// Plan partitions units into bundles of at most maxSize bytes, in a single greedy pass.
//
// Units keep their order: concatenating the plans yields the input. A unit larger than maxSize
// is planned alone in its own bundle. Each unit is assigned to exactly one plan.
func Plan(units []model.ArchiveUnit, maxSize int64) ([]model.BundlePlan, error) {
	if maxSize <= 0 {
		return nil, status.ErrMaxBundleSize.Wrap(fmt.Errorf("got %d", maxSize))
	}
	acc := planAccumulator{
		closed:  make([]model.BundlePlan, 0, len(units)),
		maxSize: maxSize,
	}
	for _, u := range units {
		acc = acc.add(u)
	}
	return acc.flush().closed, nil
}
