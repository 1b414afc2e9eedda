package workflow

import (
	"fmt"
	"strings"
)

// Stage is one step of the fixed five-step modeling workflow. Stages advance
// strictly forward, one step at a time; there is no backward transition
// short of a full Reset.
type Stage string

const (
	StageProblem        Stage = "problem_definition"
	StageModel          Stage = "model_construction"
	StageData           Stage = "data_generation"
	StageAnalysis       Stage = "estimation_analysis"
	StageCounterfactual Stage = "counterfactual"
)

var stageOrder = []Stage{
	StageProblem,
	StageModel,
	StageData,
	StageAnalysis,
	StageCounterfactual,
}

func (s Stage) String() string { return string(s) }

// Next returns the immediate successor stage. ok is false for the final
// stage and for unknown values.
func (s Stage) Next() (Stage, bool) {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// Index returns the position of the stage in the workflow order, or -1.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func ParseStage(s string) (Stage, error) {
	v := Stage(strings.TrimSpace(strings.ToLower(s)))
	if v.Index() < 0 {
		return "", fmt.Errorf("unknown stage: %q", s)
	}
	return v, nil
}
