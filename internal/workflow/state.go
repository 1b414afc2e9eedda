package workflow

import (
	"strings"

	"github.com/ygtangsdu/qse-architect/internal/model"
)

// State holds everything a workflow session has produced so far. It is owned
// exclusively by one Controller; views read Snapshot copies. Committed
// SimulationResults are immutable.
type State struct {
	Stage            Stage
	Problem          string
	ModelLogic       string
	Baseline         *model.SimulationResult
	AnalysisReport   string
	ShockDescription string
	Counterfactual   *model.SimulationResult
	InFlight         bool
}

func newState() State {
	return State{Stage: StageProblem}
}

// payload carries the data a transition commits along with the stage change.
type payload struct {
	Problem        string
	ModelLogic     string
	Baseline       *model.SimulationResult
	AnalysisReport string
}

// advance is the single mutation path for the stage. It fails unless target
// is the immediate successor of the current stage and the payload the target
// requires is present; on success payload and stage are committed together.
func (s *State) advance(target Stage, p payload) error {
	next, ok := s.Stage.Next()
	if !ok || next != target {
		return &IllegalTransitionError{From: s.Stage, To: target}
	}

	switch target {
	case StageModel:
		if strings.TrimSpace(p.ModelLogic) == "" {
			return &MissingPayloadError{Target: target, Missing: "model logic text"}
		}
		s.Problem = p.Problem
		s.ModelLogic = p.ModelLogic
	case StageData:
		if strings.TrimSpace(s.ModelLogic) == "" {
			return &MissingPayloadError{Target: target, Missing: "model logic text"}
		}
		if p.Baseline == nil {
			return &MissingPayloadError{Target: target, Missing: "baseline simulation result"}
		}
		s.Baseline = p.Baseline
	case StageAnalysis:
		if s.Baseline == nil {
			return &MissingPayloadError{Target: target, Missing: "baseline simulation result"}
		}
		if strings.TrimSpace(p.AnalysisReport) == "" {
			return &MissingPayloadError{Target: target, Missing: "analysis report text"}
		}
		s.AnalysisReport = p.AnalysisReport
	case StageCounterfactual:
		if s.Baseline == nil {
			return &MissingPayloadError{Target: target, Missing: "baseline simulation result"}
		}
	}

	s.Stage = target
	return nil
}
