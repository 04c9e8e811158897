package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs one-shot tasks after a delay. Tasks are keyed: scheduling a
// key that already has a pending task replaces it, so at most one task per key
// is ever pending.
type Scheduler struct {
	tasks map[string]*task
	seq   uint64
	mu    sync.Mutex
}

type task struct {
	timer *time.Timer
	seq   uint64
}

func New() *Scheduler {
	return &Scheduler{
		tasks: make(map[string]*task),
	}
}

// Schedule runs fn once after delay unless the key is cancelled or
// rescheduled first. It reports whether a pending task was replaced.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := s.cancelLocked(key)

	s.seq++
	seq := s.seq
	t := &task{seq: seq}
	t.timer = time.AfterFunc(delay, func() {
		if !s.release(key, seq) {
			return
		}
		fn()
	})
	s.tasks[key] = t

	return replaced
}

// Cancel stops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(key)
}

func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}

func (s *Scheduler) cancelLocked(key string) bool {
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// release removes the entry for a firing timer. A timer that fired while being
// replaced or cancelled finds a different (or no) entry and must not run.
func (s *Scheduler) release(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok || t.seq != seq {
		return false
	}
	delete(s.tasks, key)
	return true
}
