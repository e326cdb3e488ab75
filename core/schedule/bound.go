package schedule

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"

	"github.com/kilianp07/eosched/core/model"
)

// CollectionBound returns the largest number of areas that can be collected
// when only the once-per-instant and once-per-area rules apply: a maximum
// matching between areas and (t, satellite) slots. It bounds the count
// objective of every variant from above.
func CollectionBound(inst *model.Instance) (int, error) {
	cols := inst.Index.Collections()
	if len(cols) == 0 {
		return 0, nil
	}
	areas := lo.Uniq(lo.Map(cols, func(c model.Collection, _ int) int { return c.Area }))
	slots := lo.Uniq(lo.Map(cols, func(c model.Collection, _ int) [2]int { return [2]int{c.T, c.Sat} }))

	left := lo.Map(areas, func(i int, _ int) any { return i })
	right := lo.Map(slots, func(s [2]int, _ int) any { return s })
	neighbors := func(a, s any) (bool, error) {
		slot := s.([2]int)
		return inst.Index.HasCollection(slot[0], slot[1], a.(int)), nil
	}
	g, err := bipartitegraph.NewBipartiteGraph(left, right, neighbors)
	if err != nil {
		return 0, err
	}
	return len(g.LargestMatching()), nil
}
