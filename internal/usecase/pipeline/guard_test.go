package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/draftforge/draftforge/internal/domain"
)

func TestGuard_AcquireRelease(t *testing.T) {
	g := NewGuard()

	if err := g.Acquire("fp1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Acquire("fp1"); !errors.Is(err, domain.ErrDuplicateExecution) {
		t.Fatalf("second acquire = %v, want ErrDuplicateExecution", err)
	}
	if err := g.Acquire("fp2"); err != nil {
		t.Fatalf("different fingerprint must acquire: %v", err)
	}

	g.Release("fp1")
	if err := g.Acquire("fp1"); err != nil {
		t.Fatalf("acquire after release = %v", err)
	}
	if g.Active() != 2 {
		t.Errorf("active = %d, want 2", g.Active())
	}
}

func TestGuard_ReleaseUnknownIsNoop(t *testing.T) {
	g := NewGuard()
	g.Release("never-acquired")
	if g.Active() != 0 {
		t.Errorf("active = %d, want 0", g.Active())
	}
}

func TestGuard_ConcurrentAcquireExactlyOneWins(t *testing.T) {
	g := NewGuard()

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire("same"); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Errorf("granted = %d, want exactly 1", granted)
	}
	if g.Active() != 1 {
		t.Errorf("active = %d, want 1", g.Active())
	}
}
