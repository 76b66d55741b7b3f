package profile

import (
	"testing"

	"github.com/arin/fitbuddy/internal/ai"
)

func setupTestDir(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_NoFile(t *testing.T) {
	setupTestDir(t)

	p, err := Load()
	if err != nil {
		t.Fatalf("Load on missing file should not error: %v", err)
	}
	if !p.IsZero() {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestSaveAndLoad(t *testing.T) {
	setupTestDir(t)

	if _, err := Save(ai.Profile{HeightCM: 175, WeightKG: 70, FitnessGoal: "maintenance"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.HeightCM != 175 || p.WeightKG != 70 || p.FitnessGoal != "maintenance" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestSave_MergesPartialUpdates(t *testing.T) {
	setupTestDir(t)

	Save(ai.Profile{HeightCM: 175, WeightKG: 70, FitnessGoal: "maintenance"})
	merged, err := Save(ai.Profile{WeightKG: 68.5})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if merged.HeightCM != 175 {
		t.Errorf("height should be kept, got %v", merged.HeightCM)
	}
	if merged.WeightKG != 68.5 {
		t.Errorf("weight should be updated, got %v", merged.WeightKG)
	}
	if merged.FitnessGoal != "maintenance" {
		t.Errorf("goal should be kept, got %q", merged.FitnessGoal)
	}
}

func TestClear(t *testing.T) {
	setupTestDir(t)

	Save(ai.Profile{HeightCM: 180})
	if err := Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	p, _ := Load()
	if !p.IsZero() {
		t.Errorf("expected empty profile after Clear, got %+v", p)
	}
	if err := Clear(); err != nil {
		t.Errorf("second Clear should be a no-op, got %v", err)
	}
}

func TestMerge_DoesNotModifyArguments(t *testing.T) {
	base := &ai.Profile{HeightCM: 160, FitnessGoal: "weight loss"}
	override := &ai.Profile{FitnessGoal: "  muscle gain "}

	got := Merge(base, override)
	if got.FitnessGoal != "muscle gain" || got.HeightCM != 160 {
		t.Errorf("unexpected merge result %+v", got)
	}
	if base.FitnessGoal != "weight loss" {
		t.Error("base was modified")
	}
	if Merge(nil, nil) == nil {
		t.Error("Merge should never return nil")
	}
}
