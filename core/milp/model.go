// Package milp holds a small in-memory representation of a binary linear
// program and its CPLEX LP rendering.
package milp

import (
	"fmt"
	"sort"
)

// VarID indexes a variable inside its Model.
type VarID int

// Var is a binary decision variable.
type Var struct {
	ID   VarID
	Name string
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression with a constant part.
type Expr struct {
	Terms []Term
	Const float64
}

// Add appends coef*v to the expression.
func (e *Expr) Add(v VarID, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConst adds c to the constant part.
func (e *Expr) AddConst(c float64) *Expr {
	e.Const += c
	return e
}

// Plus appends every term of o scaled by k.
func (e *Expr) Plus(o Expr, k float64) *Expr {
	for _, t := range o.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: k * t.Coef})
	}
	e.Const += k * o.Const
	return e
}

// Len returns the number of terms, duplicates included.
func (e Expr) Len() int { return len(e.Terms) }

// Normalize merges duplicate variables, drops zero coefficients and sorts
// terms by variable.
func (e Expr) Normalize() Expr {
	if len(e.Terms) == 0 {
		return Expr{Const: e.Const}
	}
	acc := make(map[VarID]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coef
	}
	out := Expr{Terms: make([]Term, 0, len(acc)), Const: e.Const}
	for v, c := range acc {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out.Terms, func(a, b int) bool { return out.Terms[a].Var < out.Terms[b].Var })
	return out
}

// Sense is the relation of a constraint row.
type Sense int

const (
	LE Sense = iota
	EQ
	GE
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case EQ:
		return "="
	case GE:
		return ">="
	}
	return "?"
}

// Constraint is a normalized row: Expr.Terms Sense RHS, with no constant part.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Satisfied reports whether values satisfies the row within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := 0.0
	for _, t := range c.Expr.Terms {
		lhs += t.Coef * values[t.Var]
	}
	switch c.Sense {
	case LE:
		return lhs <= c.RHS+tol
	case GE:
		return lhs >= c.RHS-tol
	default:
		return lhs >= c.RHS-tol && lhs <= c.RHS+tol
	}
}

// Model is a binary linear program.
type Model struct {
	Name string

	vars     []Var
	varNames map[string]VarID

	rows     []Constraint
	rowNames map[string]int

	objective Expr
	maximize  bool
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{
		Name:     name,
		varNames: make(map[string]VarID),
		rowNames: make(map[string]int),
	}
}

// AddBinary declares a binary variable. Names must be unique.
func (m *Model) AddBinary(name string) (VarID, error) {
	if _, ok := m.varNames[name]; ok {
		return 0, fmt.Errorf("duplicate variable %q", name)
	}
	id := VarID(len(m.vars))
	m.vars = append(m.vars, Var{ID: id, Name: name})
	m.varNames[name] = id
	return id, nil
}

// AddConstraint normalizes lhs and folds its constant into the right-hand
// side. Names must be unique.
func (m *Model) AddConstraint(name string, lhs Expr, sense Sense, rhs float64) error {
	if _, ok := m.rowNames[name]; ok {
		return fmt.Errorf("duplicate constraint %q", name)
	}
	e := lhs.Normalize()
	for _, t := range e.Terms {
		if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
			return fmt.Errorf("constraint %q references unknown variable %d", name, t.Var)
		}
	}
	rhs -= e.Const
	e.Const = 0
	m.rowNames[name] = len(m.rows)
	m.rows = append(m.rows, Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs})
	return nil
}

// SetObjective sets the objective expression and direction.
func (m *Model) SetObjective(e Expr, maximize bool) {
	m.objective = e.Normalize()
	m.maximize = maximize
}

// Objective returns the objective expression and whether it is maximized.
func (m *Model) Objective() (Expr, bool) { return m.objective, m.maximize }

// Vars returns the declared variables in declaration order.
func (m *Model) Vars() []Var { return m.vars }

// Var returns the variable with the given id.
func (m *Model) Var(id VarID) Var { return m.vars[id] }

// VarByName looks up a variable.
func (m *Model) VarByName(name string) (VarID, bool) {
	id, ok := m.varNames[name]
	return id, ok
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// Constraints returns the rows in insertion order.
func (m *Model) Constraints() []Constraint { return m.rows }

// ConstraintByName looks up a row.
func (m *Model) ConstraintByName(name string) (Constraint, bool) {
	n, ok := m.rowNames[name]
	if !ok {
		return Constraint{}, false
	}
	return m.rows[n], true
}

// ObjectiveValue evaluates the objective at values.
func (m *Model) ObjectiveValue(values []float64) float64 {
	v := m.objective.Const
	for _, t := range m.objective.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}

// Stats summarizes model size.
type Stats struct {
	Variables   int `json:"variables"`
	Constraints int `json:"constraints"`
	NonZeros    int `json:"non_zeros"`
}

// Stats returns the size of the model.
func (m *Model) Stats() Stats {
	nz := 0
	for _, r := range m.rows {
		nz += len(r.Expr.Terms)
	}
	return Stats{Variables: len(m.vars), Constraints: len(m.rows), NonZeros: nz}
}
