// Package session sequences "next unrated report" delivery for logged-in
// raters.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BastienLeGuellec/PARROT-rating/internal/blind"
	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
)

// State is the per-session phase of the rating flow.
type State int

const (
	StateLoading State = iota
	StateReady
	StateAwaitingSubmit
	StateAllDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateAwaitingSubmit:
		return "awaiting_submit"
	case StateAllDone:
		return "all_done"
	}
	return "unknown"
}

// ErrNoCurrentItem is returned by Submit when no item is awaiting a verdict.
var ErrNoCurrentItem = errors.New("no item awaiting submission")

// ErrInvalidVerdict is returned by Submit for a verdict outside the accepted
// set.
var ErrInvalidVerdict = errors.New("invalid verdict")

// Controller runs one user's rating session. All methods are safe for
// concurrent use; two tabs of the same user share one controller and
// serialize on its mutex.
type Controller struct {
	ID       string
	Username string

	queue      []string
	collection *catalog.Collection
	log        *repository.ActionLog

	mu      sync.Mutex
	state   State
	current *model.PresentedItem
}

// Next returns the item the rater should see. While an item is awaiting
// submission the same item is returned again, so a page refresh shows a
// consistent report. A nil item means the session reached ALL_DONE.
func (c *Controller) Next(ctx context.Context) (*model.PresentedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateAwaitingSubmit && c.current != nil {
		item := *c.current
		return &item, nil
	}
	if c.state == StateAllDone {
		return nil, nil
	}

	rated, err := c.log.RatedCases(ctx, c.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to read rated cases: %w", err)
	}

	for _, caseID := range c.queue {
		if _, done := rated[caseID]; done {
			continue
		}
		rec, err := c.collection.Get(caseID)
		if err != nil {
			return nil, err
		}
		item := blind.Present(c.Username, rec)
		c.current = &item
		c.state = StateAwaitingSubmit
		out := item
		return &out, nil
	}

	c.current = nil
	c.state = StateAllDone
	return nil, nil
}

// Submit records the verdict for the item currently awaiting submission. On
// a persistence failure the session stays in AWAITING_SUBMIT and the caller
// must retry the identical submission; the rater is never advanced past an
// unrecorded item. Under the strict re-rating policy a duplicate is reported
// via repository.ErrDuplicateRating but the session still advances, since
// the case is already rated.
func (c *Controller) Submit(ctx context.Context, verdict, comments string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingSubmit || c.current == nil {
		return ErrNoCurrentItem
	}
	if !model.ValidVerdict(verdict) {
		return fmt.Errorf("%w: %q", ErrInvalidVerdict, verdict)
	}

	ev := &model.RatingEvent{
		Username: c.Username,
		CaseID:   c.current.CaseID,
		Verdict:  verdict,
		Comments: comments,
		Hidden:   c.current.Hidden,
	}
	if err := c.log.Record(ctx, ev); err != nil {
		if errors.Is(err, repository.ErrDuplicateRating) {
			c.current = nil
			c.state = StateReady
			return err
		}
		return err
	}

	c.current = nil
	c.state = StateReady
	return nil
}

// Progress counts distinct rated cases over the assignment. Log entries for
// cases outside the assignment are ignored, so the count never exceeds the
// total.
func (c *Controller) Progress(ctx context.Context) (model.ProgressSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rated, err := c.log.RatedCases(ctx, c.Username)
	if err != nil {
		return model.ProgressSnapshot{}, fmt.Errorf("failed to read rated cases: %w", err)
	}

	count := 0
	for _, caseID := range c.queue {
		if _, done := rated[caseID]; done {
			count++
		}
	}

	return model.ProgressSnapshot{
		Username: c.Username,
		Rated:    count,
		Total:    len(c.queue),
	}, nil
}

// State returns the session phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
