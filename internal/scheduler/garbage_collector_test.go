package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/logger"
)

type fakePruner struct {
	calls   atomic.Int32
	removed int
}

func (f *fakePruner) PruneHubCaches() int {
	f.calls.Add(1)
	return f.removed
}

func TestCacheJanitor_Collect(t *testing.T) {
	log := logger.New("error", false)
	pruner := &fakePruner{removed: 3}

	janitor := NewCacheJanitor(pruner, log, time.Hour)

	if got := janitor.Collect(); got != 3 {
		t.Errorf("Expected 3 removed entries, got %d", got)
	}
	if pruner.calls.Load() != 1 {
		t.Errorf("Expected 1 prune call, got %d", pruner.calls.Load())
	}
}

func TestCacheJanitor_DefaultInterval(t *testing.T) {
	janitor := NewCacheJanitor(&fakePruner{}, logger.Nop(), 0)
	if janitor.interval != DefaultJanitorInterval {
		t.Errorf("Expected default interval %v, got %v", DefaultJanitorInterval, janitor.interval)
	}
}

func TestCacheJanitor_Ticks(t *testing.T) {
	pruner := &fakePruner{}
	janitor := NewCacheJanitor(pruner, logger.Nop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	janitor.Start(ctx)
	defer janitor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not tick, calls=%d", pruner.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
