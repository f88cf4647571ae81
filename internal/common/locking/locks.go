// internal/common/locking/locks.go

// Package locking serializes mutating operations per course. Allocation,
// status transitions, and the promotion cascade are read-modify-write
// sequences over the same rows; holding the course lock for the whole
// sequence keeps them atomic within the process.
package locking

import "sync"

// CourseLocks is a keyed mutex. The zero value is not usable; use New.
type CourseLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *CourseLocks {
	return &CourseLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for courseID, creating it on first use.
// Mutexes are never evicted; the course population is small and stable.
func (c *CourseLocks) Lock(courseID string) {
	c.get(courseID).Lock()
}

// Unlock releases the mutex for courseID.
func (c *CourseLocks) Unlock(courseID string) {
	c.get(courseID).Unlock()
}

func (c *CourseLocks) get(courseID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.locks[courseID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[courseID] = m
	}
	return m
}
