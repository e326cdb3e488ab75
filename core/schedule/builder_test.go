package schedule

import (
	"bytes"
	"context"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
	"github.com/kilianp07/eosched/test/scenario"
)

var (
	base       = model.Capabilities{}
	processing = model.Capabilities{Processing: true}
	battery    = model.Capabilities{Processing: true, Battery: true}
)

func build(t *testing.T, inst *model.Instance, caps model.Capabilities, opts ...Option) *Problem {
	t.Helper()
	p, err := Build(context.Background(), inst, caps, opts...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return p
}

func coef(c milp.Constraint, id milp.VarID) float64 {
	for _, term := range c.Expr.Terms {
		if term.Var == id {
			return term.Coef
		}
	}
	return 0
}

func TestFabricAllocatesValidTuplesOnly(t *testing.T) {
	g := NewWithT(t)

	pb := build(t, scenario.Reference(nil), base)
	g.Expect(pb.Fabric.X).To(HaveLen(10))
	g.Expect(pb.Fabric.Y).To(HaveLen(18))
	g.Expect(pb.Fabric.Z).To(BeEmpty())
	g.Expect(pb.Fabric.PrunedCounts()).To(Equal(Pruned{X: 152, Y: 144, Z: 0}))

	pp := build(t, scenario.Reference(nil), processing)
	g.Expect(pp.Fabric.Z).To(HaveLen(46))
	g.Expect(pp.Fabric.PrunedCounts().Z).To(Equal(162 - 46))

	id, ok := pp.Fabric.LookupX(0, 4, 0)
	g.Expect(ok).To(BeTrue())
	g.Expect(pp.Model.Var(id).Name).To(Equal("x_0_4_0"))
	_, ok = pp.Fabric.LookupX(1, 4, 0)
	g.Expect(ok).To(BeFalse())

	// sat 1 can never image area 5
	_, ok = pp.Fabric.LookupY(7, 5, 1, 0)
	g.Expect(ok).To(BeFalse())
	id, ok = pp.Fabric.LookupY(7, 2, 1, 0)
	g.Expect(ok).To(BeTrue())
	g.Expect(pp.Model.Var(id).Name).To(Equal("y_7_2_1_0"))

	for _, tc := range []struct {
		t, i, j int
		want    bool
	}{
		{0, 4, 0, false}, // initial instant
		{1, 4, 0, true},
		{2, 2, 0, false}, // collection instant of the same area
		{6, 4, 0, true},  // last admissible start p-pt
		{7, 4, 0, false},
		{3, 5, 1, false}, // sat 1 never images area 5
	} {
		_, ok := pp.Fabric.LookupZ(tc.t, tc.i, tc.j)
		g.Expect(ok).To(Equal(tc.want), "z[%d,%d,%d]", tc.t, tc.i, tc.j)
	}
}

func TestDownlinkAtInitialInstant(t *testing.T) {
	g := NewWithT(t)
	d := model.Dims{Horizon: 3, Satellites: 1, Areas: 1, Stations: 2}
	idx, err := model.NewOpportunityIndex(d,
		[]model.Collection{{T: 0, Sat: 0, Area: 0}},
		[]model.Contact{{T: 0, Sat: 0, Station: 0}, {T: 0, Sat: 0, Station: 1}, {T: 2, Sat: 0, Station: 1}})
	g.Expect(err).NotTo(HaveOccurred())
	inst, err := model.NewInstance(idx, nil, model.Params{
		Memory: []float64{1}, Uplink: []float64{1}, Downlink: []float64{1, 1}, ProcessingTime: 1,
	})
	g.Expect(err).NotTo(HaveOccurred())

	for _, caps := range []model.Capabilities{base, processing} {
		p := build(t, inst, caps)
		for k := 0; k < 2; k++ {
			_, ok := p.Fabric.LookupY(0, 0, 0, k)
			g.Expect(ok).To(BeFalse(), "%s prunes y at t=0 for station %d", caps.Variant(), k)
		}
		id, ok := p.Fabric.LookupY(2, 0, 0, 1)
		g.Expect(ok).To(BeTrue())
		g.Expect(p.Model.Var(id).Name).To(Equal("y_2_0_0_1"))
		_, ok = p.Model.ConstraintByName("downlink_causality[0,0,0]")
		g.Expect(ok).To(BeFalse())
		_, ok = p.Model.ConstraintByName("downlink_causality[2,0,0]")
		g.Expect(ok).To(BeTrue())
	}
	pb := build(t, inst, base)
	g.Expect(pb.Fabric.Y).To(HaveLen(1))
}

func TestProcessingBoundaries(t *testing.T) {
	g := NewWithT(t)
	pp := build(t, scenario.Reference(nil), processing)
	m := pp.Model

	has := func(name string) bool {
		_, ok := m.ConstraintByName(name)
		return ok
	}

	// processing_causality applies for t in [1, p-pt) = [1, 6)
	g.Expect(has("processing_causality[1,4,0]")).To(BeTrue())
	g.Expect(has("processing_causality[5,4,0]")).To(BeTrue())
	g.Expect(has("processing_causality[6,4,0]")).To(BeFalse())
	z6, _ := pp.Fabric.LookupZ(6, 4, 0)
	for _, c := range m.Constraints() {
		if coef(c, z6) != 0 {
			g.Expect(c.Name).NotTo(HavePrefix("processing_causality"))
		}
	}

	// sequential_processing windows start at t in [1, p-pt] = [1, 6]
	g.Expect(has("sequential_processing[0,0]")).To(BeFalse())
	g.Expect(has("sequential_processing[0,1]")).To(BeTrue())
	g.Expect(has("sequential_processing[0,7]")).To(BeFalse())
	last, ok := m.ConstraintByName("sequential_processing[0,6]")
	g.Expect(ok).To(BeTrue())
	g.Expect(last.Expr.Terms).To(HaveLen(len(pp.Fabric.ZAt(6, 0))))
	first, _ := m.ConstraintByName("sequential_processing[1,1]")
	g.Expect(first.Expr.Terms).To(HaveLen(len(pp.Fabric.ZAt(1, 1)) + len(pp.Fabric.ZAt(2, 1)) + len(pp.Fabric.ZAt(3, 1))))
	g.Expect(first.RHS).To(Equal(1.0))

	// downlink_causality applies for t in [1, p)
	g.Expect(has("downlink_causality[8,0,0]")).To(BeTrue())

	// memory releases a job pt instants after it starts
	z1, ok := pp.Fabric.LookupZ(1, 4, 0)
	g.Expect(ok).To(BeTrue())
	mem3, _ := m.ConstraintByName("memory[0,3]")
	mem4, _ := m.ConstraintByName("memory[0,4]")
	g.Expect(coef(mem3, z1)).To(Equal(0.0))
	g.Expect(coef(mem4, z1)).To(Equal(-1.0))

	// disposition of the collection of area 4 by sat 0 at t=0
	disp, ok := m.ConstraintByName("disposition[0,0,4]")
	g.Expect(ok).To(BeTrue())
	g.Expect(disp.Sense).To(Equal(milp.EQ))
	x, _ := pp.Fabric.LookupX(0, 4, 0)
	y4, _ := pp.Fabric.LookupY(4, 4, 0, 0)
	g.Expect(coef(disp, x)).To(Equal(1.0))
	g.Expect(coef(disp, y4)).To(Equal(-1.0))
	g.Expect(coef(disp, z1)).To(Equal(-1.0))
	g.Expect(coef(disp, z6)).To(Equal(-1.0))

	// the processing variant replaces aggregate transport
	g.Expect(has("transport[4,0]")).To(BeFalse())
	pb := build(t, scenario.Reference(nil), base)
	tr, ok := pb.Model.ConstraintByName("transport[4,0]")
	g.Expect(ok).To(BeTrue())
	g.Expect(tr.Expr.Terms).To(HaveLen(1 + 2)) // x_0_4_0, y_4_4_0_0, y_8_4_0_0
}

func TestBatteryRows(t *testing.T) {
	g := NewWithT(t)
	b := scenario.ReferenceBattery(5, 10)
	pb := build(t, scenario.Reference(&b), battery)
	m := pb.Model

	floor, ok := m.ConstraintByName("battery_floor[0,8]")
	g.Expect(ok).To(BeTrue())
	// 5 - 0.3*9 + 0.4*4 - 3
	g.Expect(floor.RHS).To(BeNumerically("~", 0.9, 1e-9))
	x, _ := pb.Fabric.LookupX(0, 4, 0)
	z, _ := pb.Fabric.LookupZ(1, 4, 0)
	y, _ := pb.Fabric.LookupY(8, 4, 0, 0)
	g.Expect(coef(floor, x)).To(Equal(0.25))
	g.Expect(coef(floor, y)).To(Equal(0.25))
	g.Expect(coef(floor, z)).To(BeNumerically("~", 1.2, 1e-9))

	ceil, ok := m.ConstraintByName("battery_ceiling[1,8]")
	g.Expect(ok).To(BeTrue())
	g.Expect(ceil.Expr.Terms).To(BeEmpty())
	g.Expect(ceil.RHS).To(BeNumerically("~", 10-5-1.6, 1e-9))

	stats := map[string]GroupStat{}
	for _, s := range pb.Groups {
		stats[s.Name] = s
	}
	g.Expect(stats["battery_ceiling"].Rows).To(Equal(18))
	g.Expect(stats["battery_floor"].Rows).To(Equal(18))
}

func TestBatteryWithoutProcessing(t *testing.T) {
	g := NewWithT(t)
	b := scenario.ReferenceBattery(10, 20)
	caps := model.Capabilities{Battery: true}
	pb := build(t, scenario.Reference(&b), caps)
	g.Expect(pb.Fabric.Z).To(BeEmpty())
	g.Expect(pb.Model.Name).To(Equal("base+battery"))
	_, ok := pb.Model.ConstraintByName("transport[4,0]")
	g.Expect(ok).To(BeTrue())
	_, ok = pb.Model.ConstraintByName("battery_floor[0,0]")
	g.Expect(ok).To(BeTrue())
}

func TestBuildIsDeterministic(t *testing.T) {
	g := NewWithT(t)
	b := scenario.ReferenceBattery(10, 20)
	render := func(workers int) string {
		p := build(t, scenario.Reference(&b), battery, WithWorkers(workers))
		var buf bytes.Buffer
		g.Expect(milp.WriteLP(&buf, p.Model)).To(Succeed())
		return buf.String()
	}
	first := render(1)
	for _, w := range []int{2, 8, 0} {
		g.Expect(render(w)).To(Equal(first))
	}
}

func TestBuildGroupOrder(t *testing.T) {
	g := NewWithT(t)
	pp := build(t, scenario.Reference(nil), processing)
	names := make([]string, len(pp.Groups))
	for n, s := range pp.Groups {
		names[n] = s.Name
	}
	g.Expect(names).To(Equal([]string{
		"collect_once_per_instant", "collect_area_once", "memory",
		"downlink_capacity", "uplink_capacity", "disposition",
		"sequential_processing", "downlink_causality", "processing_causality",
	}))
	// empty rows are skipped: 18 instant slots but only 7 have a collection
	g.Expect(pp.Groups[0].Rows).To(Equal(7))
	g.Expect(pp.Groups[0].Rows + pp.Groups[0].Skipped).To(Equal(18))
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	inst := scenario.Reference(nil)
	_, err := Build(context.Background(), inst, battery)
	NewWithT(t).Expect(err).To(MatchError(model.ErrInvalidInput))
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, scenario.Reference(nil), base)
	NewWithT(t).Expect(err).To(MatchError(context.Canceled))
}

func TestWeightedObjective(t *testing.T) {
	g := NewWithT(t)
	d := model.Dims{Horizon: 2, Satellites: 1, Areas: 2, Stations: 0}
	idx, err := model.NewOpportunityIndex(d, []model.Collection{{T: 0, Sat: 0, Area: 0, Value: 4}, {T: 1, Sat: 0, Area: 1, Value: 0.5}}, nil)
	g.Expect(err).NotTo(HaveOccurred())
	inst, err := model.NewInstance(idx, nil, model.Params{Memory: []float64{2}, Uplink: []float64{0}, Downlink: []float64{}})
	g.Expect(err).NotTo(HaveOccurred())

	p := build(t, inst, base, WithObjective(ObjectiveWeighted))
	obj, maximize := p.Model.Objective()
	g.Expect(maximize).To(BeTrue())
	g.Expect(obj.Terms).To(ConsistOf(milp.Term{Var: 0, Coef: 4}, milp.Term{Var: 1, Coef: 0.5}))

	_, err = ParseObjective("profit")
	g.Expect(err).To(HaveOccurred())
	o, err := ParseObjective("")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(o).To(Equal(ObjectiveCount))
}

func TestCollectionBound(t *testing.T) {
	g := NewWithT(t)
	n, err := CollectionBound(scenario.Reference(nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(Equal(6))

	n, err = CollectionBound(scenario.ProcessingOnly())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(Equal(3))
}
