package workflow

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ygtangsdu/qse-architect/internal/model"
)

// Generator is the port to the external generation service. Implementations
// perform all theoretical derivation and equilibrium computation; the
// workflow treats every return value as opaque until validated.
type Generator interface {
	// ModelLogic derives a theoretical model (free text, possibly with
	// $$...$$ math markup) from a problem description.
	ModelLogic(ctx context.Context, problem string) (string, error)

	// SyntheticData produces a raw decoded equilibrium dataset for the model.
	// The caller gates it through model.ValidateResult before committing.
	SyntheticData(ctx context.Context, modelLogic string) (any, error)

	// Analysis produces an estimation/analysis report for a dataset.
	Analysis(ctx context.Context, modelLogic string, baseline *model.SimulationResult) (string, error)

	// Counterfactual recomputes the equilibrium under a described shock.
	Counterfactual(ctx context.Context, baseline *model.SimulationResult, shock string) (any, error)
}

// EventSink receives workflow progress events. Events are snapshots; the
// sink must not retain and mutate them. A nil sink drops events.
type EventSink func(ev map[string]any)

// Controller owns one workflow session's State and sequences generation
// calls against it. All four stage operations share a single in-flight
// guard: while one generation call is outstanding every other operation
// fails with ErrBusy. Every operation either commits a fully valid new
// state or leaves state exactly as it was.
type Controller struct {
	mu    sync.Mutex
	state State

	gen    Generator
	sink   EventSink
	logger *log.Logger
}

// NewController creates a controller at the problem-definition stage.
// sink and logger may be nil.
func NewController(gen Generator, sink EventSink, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(log.Writer(), "[workflow] ", log.LstdFlags)
	}
	return &Controller{
		state:  newState(),
		gen:    gen,
		sink:   sink,
		logger: logger,
	}
}

// Snapshot returns a read-only copy of the session state. Result pointers
// are shared; committed results are immutable.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a generation call is outstanding. This flag is the
// caller's only busy signal.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.InFlight
}

// Comparison merges the committed baseline with the committed counterfactual
// (if any) into per-location comparison records. Recomputed on every call,
// never persisted. Returns nil before a baseline exists.
func (c *Controller) Comparison() []MergedLocation {
	snap := c.Snapshot()
	if snap.Baseline == nil {
		return nil
	}
	var cf []model.Location
	if snap.Counterfactual != nil {
		cf = snap.Counterfactual.Locations
	}
	return Merge(snap.Baseline.Locations, cf)
}

// SubmitProblem sends the problem statement to the generation service and,
// on success, commits the returned model logic and advances to model
// construction.
func (c *Controller) SubmitProblem(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &EmptyInputError{Field: "problem statement"}
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.requireStage(StageProblem, StageModel); err != nil {
		return err
	}

	logic, err := c.gen.ModelLogic(ctx, text)
	if err != nil {
		return c.collaboratorFailed("model_logic", err)
	}
	if strings.TrimSpace(logic) == "" {
		return c.collaboratorFailed("model_logic", errEmptyResponse)
	}

	return c.commit(StageModel, payload{Problem: text, ModelLogic: logic})
}

// GenerateData asks the generation service for a calibrated synthetic
// equilibrium dataset, gates it through schema validation, and commits it as
// the baseline. The baseline is immutable thereafter.
func (c *Controller) GenerateData(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.requireStage(StageModel, StageData); err != nil {
		return err
	}
	logic := c.snapshotLocked().ModelLogic

	raw, err := c.gen.SyntheticData(ctx, logic)
	if err != nil {
		return c.collaboratorFailed("synthetic_data", err)
	}
	res, err := model.ValidateResult(raw)
	if err != nil {
		c.emit("generation_rejected", map[string]any{"step": "synthetic_data", "error": err.Error()})
		return err
	}

	if err := c.commit(StageData, payload{Baseline: res}); err != nil {
		return err
	}
	c.emit("baseline_committed", map[string]any{"digest": model.Digest(res), "locations": len(res.Locations)})
	return nil
}

// ProceedToAnalysis advances into estimation/analysis. The report is
// computed lazily: if one is already stored the generation service is not
// invoked again, and a repeat call after the stage has advanced is a no-op.
func (c *Controller) ProceedToAnalysis(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	snap := c.snapshotLocked()
	if snap.Baseline == nil {
		return &MissingPayloadError{Target: StageAnalysis, Missing: "baseline simulation result"}
	}

	report := snap.AnalysisReport
	if strings.TrimSpace(report) != "" {
		// Memoized. If the stage already moved past data generation this is
		// a pure no-op; otherwise advance reusing the stored report.
		if snap.Stage.Index() >= StageAnalysis.Index() {
			return nil
		}
		return c.commit(StageAnalysis, payload{AnalysisReport: report})
	}

	if err := c.requireStage(StageData, StageAnalysis); err != nil {
		return err
	}
	report, err := c.gen.Analysis(ctx, snap.ModelLogic, snap.Baseline)
	if err != nil {
		return c.collaboratorFailed("analysis", err)
	}
	if strings.TrimSpace(report) == "" {
		return c.collaboratorFailed("analysis", errEmptyResponse)
	}
	return c.commit(StageAnalysis, payload{AnalysisReport: report})
}

// AdvanceToCounterfactual moves from analysis into the counterfactual stage.
// No generation call is involved; the transition requires only the baseline.
func (c *Controller) AdvanceToCounterfactual() error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()
	return c.commit(StageCounterfactual, payload{})
}

// RunCounterfactual recomputes the equilibrium under the described shock and
// commits the result as the counterfactual, replacing any prior one. The
// stage does not change; the operation may be repeated with new shocks.
func (c *Controller) RunCounterfactual(ctx context.Context, shock string) error {
	shock = strings.TrimSpace(shock)
	if shock == "" {
		return &EmptyInputError{Field: "shock description"}
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	snap := c.snapshotLocked()
	if snap.Stage != StageCounterfactual {
		return &IllegalTransitionError{From: snap.Stage, To: StageCounterfactual}
	}
	if snap.Baseline == nil {
		return &MissingPayloadError{Target: StageCounterfactual, Missing: "baseline simulation result"}
	}

	raw, err := c.gen.Counterfactual(ctx, snap.Baseline, shock)
	if err != nil {
		return c.collaboratorFailed("counterfactual", err)
	}
	res, err := model.ValidateResult(raw)
	if err != nil {
		c.emit("generation_rejected", map[string]any{"step": "counterfactual", "error": err.Error()})
		return err
	}

	c.mu.Lock()
	c.state.ShockDescription = shock
	c.state.Counterfactual = res
	c.mu.Unlock()
	c.emit("counterfactual_replaced", map[string]any{"digest": model.Digest(res), "shock": shock})
	return nil
}

// Reset returns the session to the problem-definition stage, discarding all
// derived state. This is the only supported way back to an earlier stage.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = newState()
	c.mu.Unlock()
	c.emit("session_reset", map[string]any{})
	return nil
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.InFlight {
		return ErrBusy
	}
	c.state.InFlight = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.state.InFlight = false
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) requireStage(at, entering Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Stage != at {
		return &IllegalTransitionError{From: c.state.Stage, To: entering}
	}
	return nil
}

// commit applies the transition under the state mutex so readers never see a
// half-updated state.
func (c *Controller) commit(target Stage, p payload) error {
	c.mu.Lock()
	err := c.state.advance(target, p)
	c.mu.Unlock()
	if err != nil {
		c.logger.Printf("stage transition rejected: %v", err)
		return err
	}
	c.emit("stage_advanced", map[string]any{"stage": target.String()})
	return nil
}

func (c *Controller) collaboratorFailed(step string, err error) error {
	werr := &CollaboratorError{Step: step, Err: err}
	c.emit("generation_failed", map[string]any{"step": step, "error": err.Error()})
	return werr
}

func (c *Controller) emit(event string, data map[string]any) {
	if c.sink == nil {
		return
	}
	ev := map[string]any{
		"event":    event,
		"event_id": ulid.Make().String(),
		"ts":       time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range data {
		ev[k] = v
	}
	c.sink(ev)
}
