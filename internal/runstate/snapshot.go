package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot is the compact on-disk record of one workflow session, written
// after every committed transition and read back by `qse status`. It is an
// observability artifact: losing or corrupting one never affects the live
// session.
type Snapshot struct {
	SessionID            string    `json:"session_id"`
	Stage                string    `json:"stage"`
	HasProblem           bool      `json:"has_problem"`
	HasModelLogic        bool      `json:"has_model_logic"`
	HasAnalysis          bool      `json:"has_analysis"`
	BaselineDigest       string    `json:"baseline_digest,omitempty"`
	CounterfactualDigest string    `json:"counterfactual_digest,omitempty"`
	LastEvent            string    `json:"last_event,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func path(root, sessionID string) string {
	return filepath.Join(root, sessionID+".json")
}

// Save writes the snapshot atomically (write temp, rename). Best-effort
// callers may discard the error.
func Save(root string, s Snapshot) error {
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("state root is required")
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path(root, s.SessionID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path(root, s.SessionID))
}

func Load(root, sessionID string) (*Snapshot, error) {
	b, err := os.ReadFile(path(root, sessionID))
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", sessionID, err)
	}
	return &s, nil
}

// List returns all snapshots under root, most recently updated first.
// Unreadable files are skipped.
func List(root string) ([]Snapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		s, err := Load(root, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
