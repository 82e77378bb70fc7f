package deadlines

import (
	"fmt"
	"testing"
	"time"

	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCheckClassifiesSteps(t *testing.T) {
	steps := timeline.Generate("data_breach", start, "gdpr")
	now := start.Add(5 * time.Hour)

	got := Check(steps, map[string]bool{"detect": true}, now, 2*time.Hour)

	// internal_notify (+1h) and containment (+3h) are overdue, initial_documentation (+6h) due soon.
	if len(got) != 3 {
		t.Fatalf("expected 3 notices, got %d: %+v", len(got), got)
	}
	if got[0].StepID != "internal_notify" || got[0].State != models.DeadlineOverdue {
		t.Fatalf("unexpected first notice: %+v", got[0])
	}
	if got[1].StepID != "containment" || got[1].State != models.DeadlineOverdue {
		t.Fatalf("unexpected second notice: %+v", got[1])
	}
	if got[2].StepID != "initial_documentation" || got[2].State != models.DeadlineDueSoon {
		t.Fatalf("unexpected third notice: %+v", got[2])
	}
	if got[2].Remaining != time.Hour {
		t.Fatalf("expected 1h remaining, got %s", got[2].Remaining)
	}
}

func TestCheckBoundaries(t *testing.T) {
	steps := []models.TimelineStep{
		{ID: "now", Time: start},
		{ID: "edge", Time: start.Add(time.Hour)},
		{ID: "later", Time: start.Add(time.Hour + time.Second)},
	}
	got := Check(steps, nil, start, time.Hour)
	if len(got) != 2 {
		t.Fatalf("expected 2 notices, got %+v", got)
	}
	for _, a := range got {
		if a.State != models.DeadlineDueSoon {
			t.Fatalf("step %s: expected due_soon, got %s", a.StepID, a.State)
		}
	}
}

func TestTrackerCooldown(t *testing.T) {
	tr := NewTracker(Config{Window: time.Hour, Cooldown: 30 * time.Minute})
	now := start.Add(30 * time.Minute)
	tr.now = func() time.Time { return now }

	steps := timeline.Generate("malware", start, "")
	first := tr.Evaluate("s1", steps, map[string]bool{"detect": true})
	if len(first) != 1 || first[0].StepID != "internal_notify" || first[0].State != models.DeadlineDueSoon {
		t.Fatalf("unexpected first notices: %+v", first)
	}
	if first[0].SessionID != "s1" || first[0].AlertID == "" {
		t.Fatalf("notice missing ids: %+v", first[0])
	}

	now = now.Add(10 * time.Minute)
	if again := tr.Evaluate("s1", steps, map[string]bool{"detect": true}); len(again) != 0 {
		t.Fatalf("expected cooldown suppression, got %+v", again)
	}

	// Crossing the deadline changes state and is raised despite the cooldown.
	now = start.Add(61 * time.Minute)
	changed := tr.Evaluate("s1", steps, map[string]bool{"detect": true})
	if len(changed) != 1 || changed[0].State != models.DeadlineOverdue {
		t.Fatalf("expected overdue notice, got %+v", changed)
	}

	now = now.Add(31 * time.Minute)
	repeat := tr.Evaluate("s1", steps, map[string]bool{"detect": true})
	if len(repeat) != 1 || repeat[0].StepID != "internal_notify" {
		t.Fatalf("expected repeat after cooldown, got %+v", repeat)
	}
}

func TestTrackerCompletionClearsState(t *testing.T) {
	tr := NewTracker(Config{Window: time.Hour, Cooldown: time.Hour})
	now := start.Add(2 * time.Hour)
	tr.now = func() time.Time { return now }

	steps := timeline.Generate("malware", start, "")
	if got := tr.Evaluate("s", steps, map[string]bool{"detect": true}); len(got) == 0 {
		t.Fatal("expected overdue notices")
	}
	done := map[string]bool{"detect": true, "internal_notify": true}
	for _, a := range tr.Evaluate("s", steps, done) {
		if a.StepID == "internal_notify" {
			t.Fatalf("completed step raised: %+v", a)
		}
	}

	tr.Forget("s")
	if got := tr.Evaluate("s", steps, map[string]bool{"detect": true}); len(got) == 0 {
		t.Fatal("expected notices after Forget")
	}
}

func TestTrackerKeepsNoStateWithoutNotices(t *testing.T) {
	tr := NewTracker(Config{Window: time.Hour})
	tr.now = func() time.Time { return start.Add(-48 * time.Hour) }

	steps := timeline.Generate("ransomware", start, "nist")
	for i := 0; i < 100; i++ {
		if got := tr.Evaluate(fmt.Sprintf("s%d", i), steps, nil); len(got) != 0 {
			t.Fatalf("expected no notices before the window, got %+v", got)
		}
	}
	if n := tr.Sessions(); n != 0 {
		t.Fatalf("expected no retained sessions, got %d", n)
	}
}

func TestTrackerBoundsSessions(t *testing.T) {
	tr := NewTracker(Config{Window: time.Hour, MaxSessions: 50})
	tr.now = func() time.Time { return start.Add(2 * time.Hour) }

	steps := timeline.Generate("malware", start, "")
	for i := 0; i < 5000; i++ {
		if got := tr.Evaluate(fmt.Sprintf("s%d", i), steps, nil); len(got) == 0 {
			t.Fatal("expected overdue notices")
		}
	}
	if n := tr.Sessions(); n != 50 {
		t.Fatalf("expected 50 retained sessions, got %d", n)
	}

	// Completing every step drops the session.
	done := make(map[string]bool)
	for _, s := range steps {
		done[s.ID] = true
	}
	tr.Evaluate("s4999", steps, done)
	if n := tr.Sessions(); n != 49 {
		t.Fatalf("expected 49 retained sessions, got %d", n)
	}
}

func TestTrackerAlertIDsAreUnique(t *testing.T) {
	tr := NewTracker(Config{Window: time.Hour})
	tr.now = func() time.Time { return start.Add(2 * time.Hour) }

	seen := make(map[string]bool)
	for _, a := range tr.Evaluate("s", timeline.Generate("malware", start, ""), nil) {
		if a.AlertID == "" || seen[a.AlertID] {
			t.Fatalf("duplicate or empty alert id %q", a.AlertID)
		}
		seen[a.AlertID] = true
	}
}
