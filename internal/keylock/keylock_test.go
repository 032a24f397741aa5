package keylock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockSerialisesSameKey(t *testing.T) {
	var (
		locker  Locker
		active  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.With("download-1", func() {
				if active.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
			})
		}()
	}
	wg.Wait()

	if overlap.Load() {
		t.Fatal("two goroutines held the same key at once")
	}
	if locker.Len() != 0 {
		t.Fatalf("expected entries to be released, got %d", locker.Len())
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	var locker Locker
	unlockA := locker.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	var locker Locker
	unlock := locker.Lock("a")
	unlock()
	unlock()

	if locker.Len() != 0 {
		t.Fatalf("expected no entries, got %d", locker.Len())
	}
	relock := locker.Lock("a")
	relock()
}
