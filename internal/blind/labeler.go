// Package blind selects which variant of a report a rater sees, without
// leaking which one it was.
package blind

import (
	"hash/fnv"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
)

// Present builds the item shown to a rater for one case. Cases without a
// modified variant always show the original. Otherwise the choice is the
// parity of an FNV-1a hash of (username, case id): stable per pair across
// repeated views and process restarts, so no decision state is persisted.
// The hidden flag is carried on the item but never serialized to the rater;
// it is copied onto the rating event at submit time.
func Present(username string, rec *model.ReportRecord) model.PresentedItem {
	if !rec.HasModified() {
		return model.PresentedItem{
			CaseID: rec.CaseID,
			Text:   rec.Original,
			Hidden: false,
		}
	}

	if showModified(username, rec.CaseID) {
		return model.PresentedItem{
			CaseID: rec.CaseID,
			Text:   rec.Modified,
			Hidden: true,
		}
	}
	return model.PresentedItem{
		CaseID: rec.CaseID,
		Text:   rec.Original,
		Hidden: false,
	}
}

func showModified(username, caseID string) bool {
	h := fnv.New64a()
	h.Write([]byte(username))
	h.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
	h.Write([]byte(caseID))
	return h.Sum64()&1 == 1
}
