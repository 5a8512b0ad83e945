package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
)

func setupLog(t *testing.T, policy repository.Policy) (*repository.ActionLog, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metarate.db")
	db, err := repository.Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return repository.NewActionLog(db, policy), path
}

func submit(t *testing.T, log *repository.ActionLog, user, caseID, verdict string, hidden bool) {
	t.Helper()
	ev := &model.RatingEvent{
		Username: user,
		CaseID:   caseID,
		Verdict:  verdict,
		Hidden:   hidden,
	}
	if err := log.Record(context.Background(), ev); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}

func TestActionLog_RecordAndHasRated(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	rated, err := log.HasRated(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("HasRated failed: %v", err)
	}
	if rated {
		t.Error("c1 should not be rated yet")
	}

	submit(t, log, "u1", "c1", model.VerdictNoError, true)

	rated, err = log.HasRated(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("HasRated failed: %v", err)
	}
	if !rated {
		t.Error("c1 should be rated")
	}

	// Another user's log is untouched
	rated, err = log.HasRated(ctx, "u2", "c1")
	if err != nil {
		t.Fatalf("HasRated failed: %v", err)
	}
	if rated {
		t.Error("u2 should have no rating for c1")
	}
}

func TestActionLog_HiddenFlagRoundTrip(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	// Verdict no_error while the modified variant was shown: the event must
	// retain hidden=true regardless of the verdict.
	submit(t, log, "u1", "c2", model.VerdictNoError, true)

	events, err := log.EventsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if !events[0].Hidden {
		t.Error("hidden flag was not preserved")
	}
	if events[0].Verdict != model.VerdictNoError {
		t.Errorf("Verdict: expected no_error, got %s", events[0].Verdict)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("timestamp was not set")
	}
}

func TestActionLog_UpdatePolicyOverwrites(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	submit(t, log, "u1", "c1", model.VerdictNoError, false)
	submit(t, log, "u1", "c1", model.VerdictLaterality, false)

	rated, err := log.RatedCases(ctx, "u1")
	if err != nil {
		t.Fatalf("RatedCases failed: %v", err)
	}
	if len(rated) != 1 {
		t.Errorf("Expected 1 distinct rated case, got %d", len(rated))
	}

	events, err := log.EventsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 submit row after overwrite, got %d", len(events))
	}
	if events[0].Verdict != model.VerdictLaterality {
		t.Errorf("Verdict: expected overwrite to laterality_error, got %s", events[0].Verdict)
	}
}

func TestActionLog_StrictPolicyRejects(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyStrict)
	ctx := context.Background()

	submit(t, log, "u1", "c1", model.VerdictNoError, false)

	ev := &model.RatingEvent{
		Username: "u1",
		CaseID:   "c1",
		Verdict:  model.VerdictOther,
	}
	err := log.Record(ctx, ev)
	if !errors.Is(err, repository.ErrDuplicateRating) {
		t.Fatalf("Expected ErrDuplicateRating, got %v", err)
	}

	// Prior event is intact
	events, err := log.EventsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Verdict != model.VerdictNoError {
		t.Errorf("Verdict: expected original no_error, got %s", events[0].Verdict)
	}
}

func TestActionLog_DurabilityAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metarate.db")
	db, err := repository.Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	log := repository.NewActionLog(db, repository.PolicyUpdate)
	submit(t, log, "u1", "c1", model.VerdictNoError, true)

	// Simulated process restart
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	db2, err := repository.Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db2.Close()

	log2 := repository.NewActionLog(db2, repository.PolicyUpdate)
	rated, err := log2.HasRated(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("HasRated after reopen failed: %v", err)
	}
	if !rated {
		t.Error("rating was lost across restart")
	}
}

func TestActionLog_AuditRowsDoNotCountAsRatings(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	if err := log.Append(ctx, "u1", model.ActionLoginSuccess); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append(ctx, "u1", model.ActionLogout); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rated, err := log.RatedCases(ctx, "u1")
	if err != nil {
		t.Fatalf("RatedCases failed: %v", err)
	}
	if len(rated) != 0 {
		t.Errorf("Audit rows must not count as ratings, got %d", len(rated))
	}

	events, err := log.EventsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 audit events, got %d", len(events))
	}
	if events[0].Action != model.ActionLoginSuccess || events[1].Action != model.ActionLogout {
		t.Errorf("Unexpected audit order: %s, %s", events[0].Action, events[1].Action)
	}
}

func TestActionLog_EventsAppendOrder(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	base := time.Now()
	for i, caseID := range []string{"c3", "c1", "c2"} {
		ev := &model.RatingEvent{
			Username:  "u1",
			CaseID:    caseID,
			Verdict:   model.VerdictNoError,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := log.Record(ctx, ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	events, err := log.EventsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	want := []string{"c3", "c1", "c2"}
	for i := range want {
		if events[i].CaseID != want[i] {
			t.Errorf("events[%d]: expected %s, got %s", i, want[i], events[i].CaseID)
		}
	}
}

func TestActionLog_Usernames(t *testing.T) {
	log, _ := setupLog(t, repository.PolicyUpdate)
	ctx := context.Background()

	submit(t, log, "u2", "c1", model.VerdictNoError, false)
	submit(t, log, "u1", "c1", model.VerdictNoError, false)
	submit(t, log, "u1", "c2", model.VerdictOther, false)

	names, err := log.Usernames(ctx)
	if err != nil {
		t.Fatalf("Usernames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "u1" || names[1] != "u2" {
		t.Errorf("Expected [u1 u2], got %v", names)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := repository.ParsePolicy(""); err != nil || p != repository.PolicyUpdate {
		t.Errorf("Empty policy: expected update, got %v/%v", p, err)
	}
	if p, err := repository.ParsePolicy("strict"); err != nil || p != repository.PolicyStrict {
		t.Errorf("strict: got %v/%v", p, err)
	}
	if _, err := repository.ParsePolicy("bogus"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
