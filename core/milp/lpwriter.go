package milp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteLP renders m in CPLEX LP format. Rows without variables are written
// with a zero coefficient on the first variable so solvers still evaluate them.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	obj, maximize := m.Objective()
	if maximize {
		fmt.Fprintln(bw, "Maximize")
	} else {
		fmt.Fprintln(bw, "Minimize")
	}
	fmt.Fprintf(bw, " obj: %s\n", renderTerms(m, obj.Terms, true))

	fmt.Fprintln(bw, "Subject To")
	for _, c := range m.Constraints() {
		terms := c.Expr.Terms
		if len(terms) == 0 && m.NumVars() > 0 {
			terms = []Term{{Var: 0, Coef: 0}}
		}
		if len(terms) == 0 {
			continue
		}
		fmt.Fprintf(bw, " %s: %s %s %s\n", LPName(c.Name), renderTerms(m, terms, false), c.Sense, num(c.RHS))
	}

	if m.NumVars() > 0 {
		fmt.Fprintln(bw, "Binaries")
		for n, v := range m.Vars() {
			if n > 0 && n%8 == 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, " %s", LPName(v.Name))
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func renderTerms(m *Model, terms []Term, allowEmpty bool) string {
	if len(terms) == 0 {
		if allowEmpty && m.NumVars() > 0 {
			return "0 " + LPName(m.Var(0).Name)
		}
		return "0"
	}
	var sb strings.Builder
	for n, t := range terms {
		c := t.Coef
		switch {
		case n == 0 && c < 0:
			sb.WriteString("- ")
			c = -c
		case n > 0 && c < 0:
			sb.WriteString(" - ")
			c = -c
		case n > 0:
			sb.WriteString(" + ")
		}
		if c != 1 {
			sb.WriteString(num(c))
			sb.WriteByte(' ')
		}
		sb.WriteString(LPName(m.Var(t.Var).Name))
	}
	return sb.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LPName keeps identifiers inside the LP format's character set.
func LPName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("_.!\"#$%&()/,;?@'`{}|~", r):
			return r
		}
		return '_'
	}, s)
}
