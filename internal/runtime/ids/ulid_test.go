package ids

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewCorrelationIDSequentialOrdering(t *testing.T) {
	const total = 100
	ids := make([]string, total)
	for i := range ids {
		ids[i] = NewCorrelationID()
	}

	for i, id := range ids {
		if _, err := ulid.Parse(id); err != nil {
			t.Fatalf("expected valid ULID at %d, got %v", i, err)
		}
		if i > 0 && ids[i-1] >= id {
			t.Fatalf("expected ids to be strictly increasing, %s >= %s", ids[i-1], id)
		}
	}
}

func TestNewCorrelationIDConcurrentUniqueness(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := NewCorrelationID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d unique ids, got %d", goroutines*perGoroutine, len(seen))
	}
}

func TestCorrelationTime(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	minted, ok := CorrelationTime(newAt(at).String())
	if !ok || !minted.Equal(at) {
		t.Fatalf("expected %v, got %v (ok=%v)", at, minted, ok)
	}

	if _, ok := CorrelationTime("req-123"); ok {
		t.Fatal("non-ULID ids must not report a time")
	}
}
