package schedule

import (
	"fmt"
	"strings"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// Objective selects what the model maximizes.
type Objective string

const (
	// ObjectiveCount maximizes the number of collected areas.
	ObjectiveCount Objective = "count"
	// ObjectiveWeighted maximizes the summed value of collected opportunities.
	ObjectiveWeighted Objective = "weighted"
)

// ParseObjective maps a configuration string to an Objective.
func ParseObjective(s string) (Objective, error) {
	switch Objective(strings.ToLower(strings.TrimSpace(s))) {
	case "", ObjectiveCount:
		return ObjectiveCount, nil
	case ObjectiveWeighted:
		return ObjectiveWeighted, nil
	}
	return "", fmt.Errorf("unknown objective %q", s)
}

func (o Objective) expr(f *Fabric, inst *model.Instance) milp.Expr {
	var e milp.Expr
	for _, x := range f.X {
		w := 1.0
		if o == ObjectiveWeighted {
			w = inst.Index.CollectionValue(x.T, x.Sat, x.Area)
		}
		e.Add(x.ID, w)
	}
	return e
}
