package api

import "sync"

// pathLocks serializes archive saves per resolved path. Entries are dropped
// once no request holds or waits on them.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lock blocks until path is free and returns the matching unlock.
func (l *pathLocks) lock(path string) func() {
	l.mu.Lock()
	entry, ok := l.locks[path]
	if !ok {
		entry = &pathLock{}
		l.locks[path] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, path)
		}
		l.mu.Unlock()
	}
}

func (l *pathLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
