package model

// ReportRecord is one entry of a report collection. Modified is empty when no
// error-injected variant exists for the case.
type ReportRecord struct {
	CaseID    string `json:"case_id"`
	Original  string `json:"original"`
	Modified  string `json:"modified,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// HasModified reports whether the case carries an error-injected variant.
func (r *ReportRecord) HasModified() bool {
	return r.Modified != ""
}

// PresentedItem is what a rater sees for one case. Hidden records whether the
// shown text is the modified variant; it is never serialized to the rater.
type PresentedItem struct {
	CaseID string `json:"case_id"`
	Text   string `json:"text"`
	Hidden bool   `json:"-"`
}
