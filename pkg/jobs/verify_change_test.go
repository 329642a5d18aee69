package jobs

import (
	"testing"

	"github.com/jobforge/jobforge/pkg/engine"
	"github.com/jobforge/jobforge/pkg/registry"
)

func stageNames(job *engine.Job) []string {
	names := make([]string, 0, len(job.Children()))
	for _, child := range job.Children() {
		names = append(names, child.Name())
	}
	return names
}

func stepNames(job *engine.Job, stage string) []string {
	for _, child := range job.Children() {
		group, ok := child.(engine.GroupScope)
		if !ok || child.Name() != stage {
			continue
		}
		names := make([]string, 0, len(group.Children()))
		for _, step := range group.Children() {
			names = append(names, step.Name())
		}
		return names
	}
	return nil
}

func TestVerifyChangeShape(t *testing.T) {
	job, err := VerifyChange()
	if err != nil {
		t.Fatalf("VerifyChange: %v", err)
	}
	if job.Name() != "verify-change" {
		t.Errorf("job name: got %q", job.Name())
	}

	stages := stageNames(job)
	wantStages := []string{"setup", "static-analysis", "test"}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages: got %v", stages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Errorf("stage[%d]: got %q want %q", i, stages[i], wantStages[i])
		}
	}

	steps := stepNames(job, "static-analysis")
	wantSteps := []string{"verify-test-layout", "vet", "lint"}
	if len(steps) != len(wantSteps) {
		t.Fatalf("static-analysis steps: got %v", steps)
	}
	for i := range wantSteps {
		if steps[i] != wantSteps[i] {
			t.Errorf("step[%d]: got %q want %q", i, steps[i], wantSteps[i])
		}
	}
}

func TestVerifyChangeEveryStepHasAction(t *testing.T) {
	job, err := VerifyChange()
	if err != nil {
		t.Fatalf("VerifyChange: %v", err)
	}
	for _, stage := range job.Children() {
		group, ok := stage.(engine.GroupScope)
		if !ok {
			t.Fatalf("stage %q is not a group", stage.Name())
		}
		for _, step := range group.Children() {
			leaf, ok := step.(engine.ActionScope)
			if !ok {
				t.Fatalf("step %q is not a leaf", step.Name())
			}
			if leaf.Action() == nil {
				t.Errorf("step %q has no action", step.Name())
			}
		}
	}
}

func TestVerifyChangeRegistered(t *testing.T) {
	job, err := registry.Lookup("verify-change")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if job.Name() != "verify-change" {
		t.Errorf("registered job name: got %q", job.Name())
	}
}
