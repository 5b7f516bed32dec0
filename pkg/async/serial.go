package async

import "sync"

// Serial executes submitted tasks one at a time, in submission order.
// The zero value is ready to use.
type Serial struct {
	mu   sync.Mutex
	tail chan struct{}
}

// Go queues task behind every previously submitted task and returns a channel
// closed once task has finished.
func (s *Serial) Go(task func()) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	prev := s.tail
	s.tail = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		task()
	}()

	return done
}

// Do queues task and blocks until it has run.
// A task must never call Do on the same Serial: it would wait for itself.
func (s *Serial) Do(task func()) {
	<-s.Go(task)
}
