package service

import "sync"

// ProjectLocks serializes mutations per project while letting reads of the
// same project run together. Different projects never contend.
type ProjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{locks: make(map[string]*sync.RWMutex)}
}

func (l *ProjectLocks) get(projectID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	rw, ok := l.locks[projectID]
	if !ok {
		rw = &sync.RWMutex{}
		l.locks[projectID] = rw
	}
	return rw
}

// Lock takes the project's write lock and returns the matching unlock.
func (l *ProjectLocks) Lock(projectID string) func() {
	rw := l.get(projectID)
	rw.Lock()
	return rw.Unlock
}

// RLock takes the project's read lock and returns the matching unlock.
func (l *ProjectLocks) RLock(projectID string) func() {
	rw := l.get(projectID)
	rw.RLock()
	return rw.RUnlock
}

func locksOrNew(l *ProjectLocks) *ProjectLocks {
	if l == nil {
		return NewProjectLocks()
	}
	return l
}
