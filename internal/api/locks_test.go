package api

import (
	"sync"
	"testing"
	"time"
)

func TestPathLocksSerializeSamePath(t *testing.T) {
	locks := newPathLocks()
	unlock := locks.lock("/library/a.cbz")

	acquired := make(chan struct{})
	go func() {
		release := locks.lock("/library/a.cbz")
		close(acquired)
		release()
	}()

	otherDone := make(chan struct{})
	go func() {
		locks.lock("/library/b.cbz")()
		close(otherDone)
	}()
	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on another path blocked")
	}

	select {
	case <-acquired:
		t.Fatal("second lock on the same path acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiting lock never acquired")
	}
}

func TestPathLocksReleaseEntries(t *testing.T) {
	locks := newPathLocks()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock("/library/a.cbz")()
		}()
	}
	wg.Wait()
	if n := locks.held(); n != 0 {
		t.Fatalf("expected no lock entries after release, got %d", n)
	}
}
