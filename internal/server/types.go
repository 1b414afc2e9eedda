package server

import (
	"time"

	"github.com/ygtangsdu/qse-architect/internal/model"
	"github.com/ygtangsdu/qse-architect/internal/workflow"
)

// SubmitProblemRequest is the POST /sessions/{id}/problem body.
type SubmitProblemRequest struct {
	Text string `json:"text"`
}

// CounterfactualRequest is the POST /sessions/{id}/counterfactual body.
type CounterfactualRequest struct {
	Shock string `json:"shock"`
}

// SessionSummary is one row of GET /sessions.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Busy      bool      `json:"busy"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionView is the read-only state snapshot returned by GET /sessions/{id}.
// The view surface exposes no way to mutate the stage directly.
type SessionView struct {
	SessionID            string                  `json:"session_id"`
	Stage                string                  `json:"stage"`
	Busy                 bool                    `json:"busy"`
	Problem              string                  `json:"problem,omitempty"`
	ModelLogic           string                  `json:"model_logic,omitempty"`
	AnalysisReport       string                  `json:"analysis_report,omitempty"`
	ShockDescription     string                  `json:"shock_description,omitempty"`
	Baseline             *model.SimulationResult `json:"baseline,omitempty"`
	Counterfactual       *model.SimulationResult `json:"counterfactual,omitempty"`
	BaselineDigest       string                  `json:"baseline_digest,omitempty"`
	CounterfactualDigest string                  `json:"counterfactual_digest,omitempty"`
}

// ComparisonResponse is the merged baseline/counterfactual view,
// recomputed on every request.
type ComparisonResponse struct {
	Locations             []workflow.MergedLocation `json:"locations"`
	Parameters            model.Parameters          `json:"parameters,omitempty"`
	BaselineWelfare       *float64                  `json:"baseline_welfare,omitempty"`
	CounterfactualWelfare *float64                  `json:"counterfactual_welfare,omitempty"`
}

// ErrorResponse names the failed step so the caller can retry it.
type ErrorResponse struct {
	Error string `json:"error"`
}
