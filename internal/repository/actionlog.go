package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
)

// Policy controls what happens when a (user, case) pair is rated twice.
type Policy string

const (
	// PolicyUpdate overwrites the prior event for the pair. Progress can
	// never double-count because at most one submit row exists per pair.
	PolicyUpdate Policy = "update"
	// PolicyStrict rejects the second rating with ErrDuplicateRating.
	PolicyStrict Policy = "strict"
)

// ErrDuplicateRating is returned under PolicyStrict when a pair is rated
// twice. Callers treat it as a no-op with a warning, not a failure.
var ErrDuplicateRating = errors.New("case already rated by user")

// ParsePolicy maps a config string to a Policy, defaulting to update.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", string(PolicyUpdate):
		return PolicyUpdate, nil
	case string(PolicyStrict):
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown rerate policy %q", s)
}

// ActionLog is the append-only per-user record of rating events and the
// source of truth for progress. Each user's rows are written only by that
// user's own sessions; a per-user mutex serializes two concurrent sessions
// (two browser tabs) so their appends cannot interleave.
type ActionLog struct {
	db     *sql.DB
	policy Policy

	mu     sync.Mutex
	byUser map[string]*sync.Mutex
}

// NewActionLog creates an action log over an open database.
func NewActionLog(db *sql.DB, policy Policy) *ActionLog {
	return &ActionLog{
		db:     db,
		policy: policy,
		byUser: make(map[string]*sync.Mutex),
	}
}

// Policy returns the configured re-rating policy.
func (l *ActionLog) Policy() Policy {
	return l.policy
}

func (l *ActionLog) userLock(username string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byUser[username]
	if !ok {
		m = &sync.Mutex{}
		l.byUser[username] = m
	}
	return m
}

// Record appends one submit event. The event is committed before Record
// returns; on error nothing is written and the caller must retry the
// identical submission. Under PolicyStrict a second event for the same pair
// returns ErrDuplicateRating; under PolicyUpdate it overwrites the prior
// one.
func (l *ActionLog) Record(ctx context.Context, ev *model.RatingEvent) error {
	if ev.CaseID == "" {
		return fmt.Errorf("rating event has no case id")
	}
	ev.Action = model.ActionSubmit
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	mu := l.userLock(ev.Username)
	mu.Lock()
	defer mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM action_log WHERE username = ? AND case_id = ? AND action = ?`,
		ev.Username, ev.CaseID, model.ActionSubmit,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO action_log (username, action, case_id, verdict, comments, hidden, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.Username, ev.Action, ev.CaseID, ev.Verdict, ev.Comments,
			boolToInt(ev.Hidden), ev.Timestamp.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to append rating event: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check prior rating: %w", err)
	default:
		if l.policy == PolicyStrict {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateRating, ev.Username, ev.CaseID)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE action_log SET verdict = ?, comments = ?, hidden = ?, timestamp = ? WHERE id = ?`,
			ev.Verdict, ev.Comments, boolToInt(ev.Hidden),
			ev.Timestamp.Format(time.RFC3339), existing,
		)
		if err != nil {
			return fmt.Errorf("failed to overwrite rating event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating event: %w", err)
	}
	return nil
}

// Append writes an audit event (login, logout). Audit rows never carry a
// case id and are ignored by progress.
func (l *ActionLog) Append(ctx context.Context, username, action string) error {
	mu := l.userLock(username)
	mu.Lock()
	defer mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO action_log (username, action, timestamp) VALUES (?, ?, ?)`,
		username, action, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// HasRated reports whether the user has a submit event for the case.
func (l *ActionLog) HasRated(ctx context.Context, username, caseID string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM action_log WHERE username = ? AND case_id = ? AND action = ?`,
		username, caseID, model.ActionSubmit,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RatedCases returns the distinct case ids the user has submitted ratings
// for.
func (l *ActionLog) RatedCases(ctx context.Context, username string) (map[string]struct{}, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT case_id FROM action_log WHERE username = ? AND action = ?`,
		username, model.ActionSubmit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rated := make(map[string]struct{})
	for rows.Next() {
		var caseID string
		if err := rows.Scan(&caseID); err != nil {
			return nil, err
		}
		rated[caseID] = struct{}{}
	}
	return rated, rows.Err()
}

// EventsFor returns the user's full log in append order, including audit
// rows. The hidden flag is included; this read path is for the scoring
// admin, never for raters.
func (l *ActionLog) EventsFor(ctx context.Context, username string) ([]model.RatingEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, username, action, case_id, verdict, comments, hidden, timestamp
		 FROM action_log WHERE username = ? ORDER BY id`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.RatingEvent
	for rows.Next() {
		var ev model.RatingEvent
		var hidden int
		var ts string
		if err := rows.Scan(&ev.ID, &ev.Username, &ev.Action, &ev.CaseID,
			&ev.Verdict, &ev.Comments, &hidden, &ts); err != nil {
			return nil, err
		}
		ev.Hidden = hidden != 0
		ev.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp on event %d: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Usernames returns the distinct users present in the log, for the admin
// log browser.
func (l *ActionLog) Usernames(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT username FROM action_log ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
