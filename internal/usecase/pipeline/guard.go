package pipeline

import (
	"sync"

	"github.com/draftforge/draftforge/internal/domain"
)

// Guard prevents duplicate concurrent execution of logically identical
// requests. The fingerprint registry is owned by the orchestrator instance
// that holds the guard; there is no process-global state.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire registers a fingerprint as in-flight. The duplicate check and the
// insert happen under one critical section; a second caller with the same
// fingerprint fails immediately with ErrDuplicateExecution — concurrency is
// rejected, never queued.
func (g *Guard) Acquire(fingerprint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[fingerprint]; ok {
		return domain.ErrDuplicateExecution
	}
	g.active[fingerprint] = struct{}{}
	return nil
}

// Release removes a fingerprint. Safe to call for a fingerprint that was
// never acquired.
func (g *Guard) Release(fingerprint string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, fingerprint)
}

// Active returns the number of in-flight runs.
func (g *Guard) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
