package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BastienLeGuellec/PARROT-rating/internal/assignment"
	"github.com/BastienLeGuellec/PARROT-rating/internal/catalog"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
)

// ErrSessionHeld indicates another process holds a live session for the
// user.
var ErrSessionHeld = errors.New("user session held by another process")

// Fence guards against two processes hosting live sessions for one user.
// Within a single process the controller mutex and the action log's per-user
// lock are sufficient; a fence extends the guarantee across processes.
type Fence interface {
	Acquire(ctx context.Context, username string) (bool, error)
	Release(ctx context.Context, username string) error
}

// Manager owns the live session controllers, one per username.
type Manager struct {
	assignments *assignment.Store
	catalog     *catalog.Catalog
	log         *repository.ActionLog
	fence       Fence // nil when disabled

	mu     sync.Mutex
	active map[string]*Controller
}

// NewManager creates a session manager. fence may be nil.
func NewManager(a *assignment.Store, c *catalog.Catalog, log *repository.ActionLog, fence Fence) *Manager {
	return &Manager{
		assignments: a,
		catalog:     c,
		log:         log,
		fence:       fence,
		active:      make(map[string]*Controller),
	}
}

// Session returns the live controller for a user, creating and loading one
// on first use. Load failures are terminal for the attempt: the error is
// returned, nothing is cached, and no retry happens here.
func (m *Manager) Session(ctx context.Context, username string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctrl, ok := m.active[username]; ok {
		return ctrl, nil
	}

	if m.fence != nil {
		ok, err := m.fence.Acquire(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session fence: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSessionHeld, username)
		}
	}

	ctrl, err := m.load(username)
	if err != nil {
		if m.fence != nil {
			if rerr := m.fence.Release(ctx, username); rerr != nil {
				zap.L().Warn("failed to release session fence",
					zap.String("username", username), zap.Error(rerr))
			}
		}
		return nil, err
	}

	m.active[username] = ctrl
	zap.L().Info("session started",
		zap.String("username", username),
		zap.String("session_id", ctrl.ID),
		zap.Int("assigned", len(ctrl.queue)))
	return ctrl, nil
}

// load resolves the user's assignment and report bodies. Every assigned case
// must resolve in the collection before anything is presented; a missing
// case aborts setup rather than being skipped.
func (m *Manager) load(username string) (*Controller, error) {
	queue, err := m.assignments.ReportsFor(username)
	if err != nil {
		return nil, err
	}
	colName, err := m.assignments.CollectionFor(username)
	if err != nil {
		return nil, err
	}
	col, err := m.catalog.Load(colName)
	if err != nil {
		return nil, err
	}
	for _, caseID := range queue {
		if !col.Has(caseID) {
			return nil, fmt.Errorf("%w: %s in %s", catalog.ErrMissingCase, caseID, colName)
		}
	}

	return &Controller{
		ID:         uuid.NewString(),
		Username:   username,
		queue:      queue,
		collection: col,
		log:        m.log,
		state:      StateReady,
	}, nil
}

// Close drops the user's live session and releases the fence.
func (m *Manager) Close(ctx context.Context, username string) {
	m.mu.Lock()
	ctrl, ok := m.active[username]
	delete(m.active, username)
	m.mu.Unlock()

	if ok {
		zap.L().Info("session closed",
			zap.String("username", username),
			zap.String("session_id", ctrl.ID))
	}
	if m.fence != nil {
		if err := m.fence.Release(ctx, username); err != nil {
			zap.L().Warn("failed to release session fence",
				zap.String("username", username), zap.Error(err))
		}
	}
}
