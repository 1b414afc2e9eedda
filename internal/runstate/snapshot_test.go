package runstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoad(t *testing.T) {
	root := t.TempDir()
	s := Snapshot{
		SessionID:      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Stage:          "data_generation",
		HasProblem:     true,
		HasModelLogic:  true,
		BaselineDigest: "a1b2c3d4e5f60718",
		LastEvent:      "baseline_committed",
		UpdatedAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := Save(root, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(root, s.SessionID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.UpdatedAt.Equal(s.UpdatedAt) {
		t.Fatalf("updated_at: got %v want %v", got.UpdatedAt, s.UpdatedAt)
	}
	got.UpdatedAt = s.UpdatedAt
	if *got != s {
		t.Fatalf("roundtrip:\n got %+v\nwant %+v", *got, s)
	}
	// No leftover temp file from the atomic write.
	if _, err := os.Stat(filepath.Join(root, s.SessionID+".json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSave_Overwrite(t *testing.T) {
	root := t.TempDir()
	s := Snapshot{SessionID: "s1", Stage: "problem_definition", UpdatedAt: time.Now().UTC()}
	if err := Save(root, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Stage = "model_construction"
	if err := Save(root, s); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	got, err := Load(root, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Stage != "model_construction" {
		t.Fatalf("stage: %q", got.Stage)
	}
}

func TestSave_Validation(t *testing.T) {
	if err := Save("", Snapshot{SessionID: "s1"}); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if err := Save(t.TempDir(), Snapshot{}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"older", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		s := Snapshot{SessionID: id, Stage: "problem_definition", UpdatedAt: base.Add(offsets[i])}
		if err := Save(root, s); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	// Corrupt files are skipped, not fatal.
	if err := os.WriteFile(filepath.Join(root, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("count: %d", len(got))
	}
	want := []string{"newest", "middle", "older"}
	for i, id := range want {
		if got[i].SessionID != id {
			t.Fatalf("order[%d]: got %q want %q", i, got[i].SessionID, id)
		}
	}
}

func TestList_MissingRoot(t *testing.T) {
	got, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing root, got %+v", got)
	}
}
