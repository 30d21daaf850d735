package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/executor"
	"github.com/specialistvlad/transformgrid/internal/history"
	"github.com/specialistvlad/transformgrid/internal/metrics"
	"github.com/specialistvlad/transformgrid/internal/plan"
)

// ChainReport is the final outcome of one chain.
type ChainReport struct {
	Name  string
	Files []string
	Err   error
}

// Run builds the execution graph from the loaded plan, executes it and
// reports every chain. A failed task always fails the run; failed chains
// fail it unless the config is lenient.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	started := time.Now()

	tp, err := buildop.InitTracing(ctx, a.config.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Tracer shutdown failed.", "error", err)
		}
	}()

	promReg := metrics.NewRegistry()
	m := metrics.New(promReg)
	a.gatherer = promReg

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(promReg)
		defer a.closeHealthcheckServer(ctx)
	}

	ops := buildop.WithProgressLogging(m.Wrap(buildop.NewTracer(tp.Tracer())))

	a.logger.Debug("Building execution graph from plan...")
	p, err := plan.Build(ctx, a.model, plan.Options{
		Registry:   a.registry,
		OutputDir:  a.config.OutputDir,
		Operations: ops,
	})
	if err != nil {
		return fmt.Errorf("failed to build execution graph: %w", err)
	}
	a.logger.Debug("Execution graph built.", "node_count", p.Graph.Len())

	if a.config.GraphDOTPath != "" {
		if err := writeDOT(p, a.config.GraphDOTPath); err != nil {
			return fmt.Errorf("failed to write execution graph: %w", err)
		}
		a.logger.Info("Execution graph written.", "path", a.config.GraphDOTPath)
	}

	if p.Graph.Len() == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting concurrent execution...", "workers", a.config.WorkerCount)
	exec := executor.New(p.Graph, a.config.WorkerCount)
	execErr := exec.Execute(ctx)
	outcomes := exec.Outcomes()
	for _, o := range outcomes {
		m.RecordNode(o.Node.Kind(), o.State.String())
	}
	a.logger.Info("🏁 Execution finished.")

	failed := a.reportChains(ctx, p, outcomes)

	var runErr error
	switch {
	case execErr != nil:
		runErr = fmt.Errorf("execution failed: %w", execErr)
	case len(failed) > 0 && a.config.Lenient:
		a.logger.Warn("Some chains failed; continuing because lenient mode is on.", "chains", failed)
	case len(failed) > 0:
		runErr = fmt.Errorf("%d chain(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}

	if a.config.HistoryPath != "" {
		a.recordHistory(ctx, started, runErr)
	}

	a.logger.Debug("App.Run method finished.")
	return runErr
}

func writeDOT(p *plan.Plan, path string) error {
	dot, err := p.Graph.DOT()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(dot), 0o644)
}

// recordHistory stores the last run. Failing to record it is logged, not
// returned.
func (a *App) recordHistory(ctx context.Context, started time.Time, runErr error) {
	ctx = context.WithoutCancel(ctx)
	run := history.Run{Started: started, Finished: time.Now()}
	if runErr != nil {
		run.Err = runErr.Error()
	}
	for _, r := range a.reports {
		rec := history.ChainRecord{Name: r.Name, Files: r.Files}
		if r.Err != nil {
			rec.Err = r.Err.Error()
		}
		run.Chains = append(run.Chains, rec)
	}

	store, err := history.Open(ctx, a.config.HistoryPath)
	if err != nil {
		a.logger.Error("Could not open run history.", "path", a.config.HistoryPath, "error", err)
		return
	}
	defer store.Close()

	id, err := store.Record(ctx, run)
	if err != nil {
		a.logger.Error("Could not record run.", "path", a.config.HistoryPath, "error", err)
		return
	}
	a.logger.Debug("Run recorded.", "id", id)
}

// reportChains logs and records the outcome of every chain and returns the
// names of the failed ones. A chain whose last node was skipped reports the
// reason it was skipped.
func (a *App) reportChains(ctx context.Context, p *plan.Plan, outcomes []executor.Outcome) []string {
	logger := ctxlog.FromContext(ctx)
	a.reports = a.reports[:0]

	skipped := make(map[string]error)
	for _, o := range outcomes {
		if o.State == executor.Skipped {
			skipped[o.Node.ID()] = o.Err
		}
	}

	var failed []string
	for _, c := range p.Chains {
		subject, err := c.Result().Get()
		if cause, ok := skipped[c.Final().ID()]; ok && cause != nil {
			err = cause
		}
		if err != nil {
			logger.Error("❌ Chain failed.", "chain", c.Name, "artifacts", c.Artifacts.DisplayName(), "error", err)
			a.reports = append(a.reports, ChainReport{Name: c.Name, Err: err})
			failed = append(failed, c.Name)
			continue
		}
		files := subject.Files()
		logger.Info("✅ Chain finished.", "chain", c.Name, "artifacts", subject.DisplayName(), "files", files)
		a.reports = append(a.reports, ChainReport{Name: c.Name, Files: files})
	}
	return failed
}

// Reports returns the chain reports of the last run.
func (a *App) Reports() []ChainReport {
	return a.reports
}
