package application

import (
	"context"
	"sync"
)

// readSlot allows one in-flight read at a time. Beginning a read cancels the
// previous one, and only the latest generation may publish its result.
type readSlot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (s *readSlot) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// finish releases the context of gen if it is still the latest.
func (s *readSlot) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *readSlot) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// invalidate cancels any in-flight read without starting a new one.
func (s *readSlot) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}
