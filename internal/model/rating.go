package model

import "time"

// Action values recorded in the per-user action log.
const (
	ActionSubmit       = "submit"
	ActionLoginSuccess = "login_success"
	ActionLoginFail    = "login_fail"
	ActionLogout       = "logout"
)

// Verdict values a rater may submit.
const (
	VerdictNoError    = "no_error"
	VerdictLaterality = "laterality_error"
	VerdictNegation   = "negation_error"
	VerdictOther      = "other_error"
)

// ValidVerdict reports whether v is one of the accepted verdict values.
func ValidVerdict(v string) bool {
	switch v {
	case VerdictNoError, VerdictLaterality, VerdictNegation, VerdictOther:
		return true
	}
	return false
}

// RatingEvent is one row of a user's action log. Hidden is the variant flag
// captured at presentation time; only submit events carry a case id.
type RatingEvent struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Action    string    `json:"action" db:"action"`
	CaseID    string    `json:"case_id,omitempty" db:"case_id"`
	Verdict   string    `json:"verdict,omitempty" db:"verdict"`
	Comments  string    `json:"comments,omitempty" db:"comments"`
	Hidden    bool      `json:"hidden" db:"hidden"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// ProgressSnapshot is derived from the assignment and the action log, never
// stored.
type ProgressSnapshot struct {
	Username string `json:"username"`
	Rated    int    `json:"rated"`
	Total    int    `json:"total"`
}

// SubmitRequest is the rating submission payload.
type SubmitRequest struct {
	Verdict  string `json:"verdict" binding:"required"`
	Comments string `json:"comments"`
}
