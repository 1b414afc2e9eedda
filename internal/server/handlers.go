package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ygtangsdu/qse-architect/internal/model"
	"github.com/ygtangsdu/qse-architect/internal/runstate"
	"github.com/ygtangsdu/qse-architect/internal/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.registry.List()),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := ulid.Make().String()
	broadcaster := NewBroadcaster()

	sink := func(ev map[string]any) {
		ev["session_id"] = id
		broadcaster.Send(ev)
	}
	ctrl := workflow.NewController(s.gen, sink, s.logger)

	ss := &SessionState{
		ID:          id,
		Controller:  ctrl,
		Broadcaster: broadcaster,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.registry.Register(id, ss); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.persist(ss)

	writeJSON(w, http.StatusCreated, SessionSummary{
		SessionID: id,
		Stage:     workflow.StageProblem.String(),
		CreatedAt: ss.CreatedAt,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	states := s.registry.List()
	out := make([]SessionSummary, 0, len(states))
	for _, ss := range states {
		out = append(out, ss.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := ss.Controller.Snapshot()
	writeJSON(w, http.StatusOK, SessionView{
		SessionID:            ss.ID,
		Stage:                snap.Stage.String(),
		Busy:                 snap.InFlight,
		Problem:              snap.Problem,
		ModelLogic:           snap.ModelLogic,
		AnalysisReport:       snap.AnalysisReport,
		ShockDescription:     snap.ShockDescription,
		Baseline:             snap.Baseline,
		Counterfactual:       snap.Counterfactual,
		BaselineDigest:       model.Digest(snap.Baseline),
		CounterfactualDigest: model.Digest(snap.Counterfactual),
	})
}

func (s *Server) handleSubmitProblem(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SubmitProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()
	s.finishOp(w, ss, "submit problem", ss.Controller.SubmitProblem(ctx, req.Text))
}

func (s *Server) handleGenerateData(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.opContext(r)
	defer cancel()
	s.finishOp(w, ss, "generate data", ss.Controller.GenerateData(ctx))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.opContext(r)
	defer cancel()
	s.finishOp(w, ss, "analysis", ss.Controller.ProceedToAnalysis(ctx))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	s.finishOp(w, ss, "advance to counterfactual", ss.Controller.AdvanceToCounterfactual())
}

func (s *Server) handleCounterfactual(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	var req CounterfactualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()
	s.finishOp(w, ss, "run counterfactual", ss.Controller.RunCounterfactual(ctx, req.Shock))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	s.finishOp(w, ss, "reset", ss.Controller.Reset())
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := ss.Controller.Snapshot()
	if snap.Baseline == nil {
		writeError(w, http.StatusConflict, "no baseline dataset: comparison requires the data generation stage")
		return
	}

	resp := ComparisonResponse{
		Locations:       ss.Controller.Comparison(),
		Parameters:      snap.Baseline.Parameters,
		BaselineWelfare: snap.Baseline.TotalWelfare,
	}
	if snap.Counterfactual != nil {
		resp.CounterfactualWelfare = snap.Counterfactual.TotalWelfare
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	ss, ok := s.session(w, r)
	if !ok {
		return
	}
	WriteSSE(w, r, ss.Broadcaster)
}

// --- Helpers ---

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*SessionState, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil, false
	}
	ss, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
		return nil, false
	}
	return ss, true
}

// opContext derives the per-operation context. The configured request
// timeout is applied here, at the view boundary; the workflow core itself
// imposes none.
func (s *Server) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.cfg != nil && s.cfg.LLM.RequestTimeoutMS > 0 {
		return context.WithTimeout(r.Context(), time.Duration(s.cfg.LLM.RequestTimeoutMS)*time.Millisecond)
	}
	return context.WithCancel(r.Context())
}

// finishOp maps a workflow operation outcome to an HTTP response and
// persists the session snapshot.
func (s *Server) finishOp(w http.ResponseWriter, ss *SessionState, step string, err error) {
	s.persist(ss)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			s.logger.Printf("%s failed: %v", step, err)
		}
		writeError(w, status, fmt.Sprintf("%s: %v", step, err))
		return
	}
	writeJSON(w, http.StatusOK, ss.Summary())
}

func statusForError(err error) int {
	var emptyErr *workflow.EmptyInputError
	var schemaErr *model.SchemaError
	var transErr *workflow.IllegalTransitionError
	var payloadErr *workflow.MissingPayloadError
	var collabErr *workflow.CollaboratorError
	switch {
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &emptyErr):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transErr), errors.As(err, &payloadErr):
		return http.StatusConflict
	case errors.As(err, &collabErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// persist writes the session snapshot to the state root. Best-effort; the
// live session never depends on it.
func (s *Server) persist(ss *SessionState) {
	if s.cfg == nil || strings.TrimSpace(s.cfg.Server.StateRoot) == "" {
		return
	}
	snap := ss.Controller.Snapshot()
	rec := runstate.Snapshot{
		SessionID:            ss.ID,
		Stage:                snap.Stage.String(),
		HasProblem:           strings.TrimSpace(snap.Problem) != "",
		HasModelLogic:        strings.TrimSpace(snap.ModelLogic) != "",
		HasAnalysis:          strings.TrimSpace(snap.AnalysisReport) != "",
		BaselineDigest:       model.Digest(snap.Baseline),
		CounterfactualDigest: model.Digest(snap.Counterfactual),
		UpdatedAt:            time.Now().UTC(),
	}
	if hist := ss.Broadcaster.History(); len(hist) > 0 {
		if ev, ok := hist[len(hist)-1]["event"].(string); ok {
			rec.LastEvent = ev
		}
	}
	if err := runstate.Save(s.cfg.Server.StateRoot, rec); err != nil {
		s.logger.Printf("snapshot save failed for %s: %v", ss.ID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
