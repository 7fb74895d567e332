package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avk2it/synccore/synccore"
)

type fakeStream struct {
	result synccore.SyncResult
	err    error
	delay  time.Duration
	inUse  *int32
	peak   *int32
}

func (f *fakeStream) Run(ctx context.Context) (synccore.SyncResult, error) {
	if f.inUse != nil {
		n := atomic.AddInt32(f.inUse, 1)
		defer atomic.AddInt32(f.inUse, -1)
		for {
			p := atomic.LoadInt32(f.peak)
			if n <= p || atomic.CompareAndSwapInt32(f.peak, p, n) {
				break
			}
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return synccore.SyncResult{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func TestRunAllCollectsEveryOutcome(t *testing.T) {
	r := New(0)
	r.Add("a", &fakeStream{result: synccore.SyncResult{Created: 1}})
	r.Add("b", &fakeStream{err: errors.New("boom")})
	r.Add("c", &fakeStream{result: synccore.SyncResult{Updated: 2}})

	outcomes := r.RunAll(context.Background())
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	byName := make(map[string]Outcome, len(outcomes))
	for _, o := range outcomes {
		byName[o.Name] = o
	}
	if byName["a"].Result.Created != 1 || byName["a"].Err != nil {
		t.Fatalf("outcome a = %+v", byName["a"])
	}
	if byName["b"].Err == nil {
		t.Fatalf("outcome b should carry an error")
	}
	if byName["c"].Result.Updated != 2 {
		t.Fatalf("outcome c = %+v", byName["c"])
	}
}

func TestRunAllDoesNotStopOnFirstError(t *testing.T) {
	r := New(0)
	r.Add("fails-fast", &fakeStream{err: errors.New("boom")})
	r.Add("slow-success", &fakeStream{result: synccore.SyncResult{Created: 5}, delay: 20 * time.Millisecond})

	outcomes := r.RunAll(context.Background())
	var sawSlowSuccess bool
	for _, o := range outcomes {
		if o.Name == "slow-success" {
			sawSlowSuccess = o.Err == nil && o.Result.Created == 5
		}
	}
	if !sawSlowSuccess {
		t.Fatal("expected the slow stream to run to completion despite another stream's error")
	}
}

func TestRunAllRespectsConcurrencyLimit(t *testing.T) {
	var inUse, peak int32
	r := New(2)
	for i := 0; i < 6; i++ {
		r.Add(string(rune('a'+i)), &fakeStream{delay: 10 * time.Millisecond, inUse: &inUse, peak: &peak})
	}

	r.RunAll(context.Background())
	if atomic.LoadInt32(&peak) > 2 {
		t.Fatalf("peak concurrent streams = %d, want <= 2", peak)
	}
}
