package workflow

import "testing"

func TestStage_Order(t *testing.T) {
	want := []Stage{StageProblem, StageModel, StageData, StageAnalysis, StageCounterfactual}
	for i, st := range want {
		if st.Index() != i {
			t.Fatalf("stage %s index: got %d want %d", st, st.Index(), i)
		}
	}
}

func TestStage_Next(t *testing.T) {
	next, ok := StageProblem.Next()
	if !ok || next != StageModel {
		t.Fatalf("Next(problem): %v %v", next, ok)
	}
	if _, ok := StageCounterfactual.Next(); ok {
		t.Fatalf("final stage must have no successor")
	}
	if _, ok := Stage("bogus").Next(); ok {
		t.Fatalf("unknown stage must have no successor")
	}
}

func TestParseStage(t *testing.T) {
	st, err := ParseStage("  Data_Generation ")
	if err != nil {
		t.Fatalf("ParseStage: %v", err)
	}
	if st != StageData {
		t.Fatalf("stage: %v", st)
	}
	if _, err := ParseStage("warmup"); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
}
