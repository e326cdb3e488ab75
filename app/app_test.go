package app

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/eosched/config"
	"github.com/kilianp07/eosched/core/factory"
	"github.com/kilianp07/eosched/core/history"
	"github.com/kilianp07/eosched/core/model"
	"github.com/kilianp07/eosched/core/solver"
	"github.com/kilianp07/eosched/infra/mqtt"
	"github.com/kilianp07/eosched/test/scenario"
	"github.com/kilianp07/eosched/test/util"
)

func writeInstance(t *testing.T, dir string, inst *model.Instance) string {
	t.Helper()
	b, err := yaml.Marshal(model.FileFromInstance(inst))
	require.NoError(t, err)
	path := filepath.Join(dir, "instance.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.History.Path = filepath.Join(dir, "runs.jsonl")
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.Format = "csv"
	cfg.Output.Trajectory = true
	return cfg
}

func TestRuntimePlanFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Scheduler.Variant = "processing"
	rt, err := NewRuntime(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close(context.Background())) }()
	pub := mqtt.NewMockPublisher()
	rt.Publisher = pub

	res, err := rt.PlanFile(context.Background(), writeInstance(t, dir, scenario.Reference(nil)))
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, res.Schedule.Status)
	assert.Equal(t, 6.0, res.Schedule.Objective)

	_, err = os.Stat(filepath.Join(cfg.Output.Dir, res.RunID+".csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, res.RunID+"-trajectory.csv"))
	assert.NoError(t, err)

	msgs := pub.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, res.RunID, msgs[0].RunID)
	assert.Equal(t, "processing", msgs[0].Variant)

	recs, err := rt.History.Query(context.Background(), history.Query{Variant: "processing"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "optimal", recs[0].Status)
}

func TestRuntimeDeliveryFailure(t *testing.T) {
	dir := t.TempDir()
	rt, err := NewRuntime(context.Background(), testConfig(dir))
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()
	pub := mqtt.NewMockPublisher()
	pub.FailVariants["base"] = true
	rt.Publisher = pub

	res, err := rt.PlanFile(context.Background(), writeInstance(t, dir, scenario.Reference(nil)))
	assert.Error(t, err)
	assert.Equal(t, solver.StatusOptimal, res.Schedule.Status)

	_, err = rt.PlanFile(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRuntimeBadSolver(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Solver.Type = "glpk"
	_, err := NewRuntime(context.Background(), cfg)
	assert.ErrorIs(t, err, solver.ErrUnknownSolver)
}

func TestServiceRun(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Output.Dir = ""
	cfg.Service.Instance = writeInstance(t, dir, scenario.ProcessingOnly())
	cfg.Service.IntervalSeconds = 1
	cfg.Scheduler.Variant = "processing"
	rt, err := NewRuntime(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()

	svc, err := NewService(rt)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		recs, err := rt.History.Query(context.Background(), history.Query{})
		return err == nil && len(recs) >= 1
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}

	rt.Config.Service.Instance = ""
	_, err = NewService(rt)
	assert.ErrorIs(t, err, ErrNoInstance)
}

func TestServiceExposesMetrics(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Output.Dir = ""
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.Metrics.Listen = addr
	cfg.Service.Instance = writeInstance(t, dir, scenario.Reference(nil))
	rt, err := NewRuntime(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()

	svc, err := NewService(rt)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer wcancel()
	require.NoError(t, util.WaitForMetric(wctx, "http://"+addr+"/metrics",
		`eosched_solves_total{solver="gonum",status="optimal",variant="base"}`,
		`eosched_model_variables{variant="base"}`))
}
