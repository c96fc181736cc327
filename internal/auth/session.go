package auth

import "sync"

// Session tracks who is signed in on the client and notifies subscribers on
// every change.
type Session struct {
	mu       sync.Mutex
	current  *Identity
	nextID   int
	watchers map[int]func(Identity, bool)
}

func NewSession() *Session {
	return &Session{watchers: make(map[int]func(Identity, bool))}
}

func (s *Session) SignIn(id Identity) {
	s.mu.Lock()
	s.current = &id
	s.mu.Unlock()
	s.notify()
}

func (s *Session) SignOut() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Session) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Subscribe calls fn with the current state right away and after every
// change. The returned func removes the subscription.
func (s *Session) Subscribe(fn func(id Identity, signedIn bool)) func() {
	s.mu.Lock()
	s.nextID++
	key := s.nextID
	s.watchers[key] = fn
	s.mu.Unlock()

	id, ok := s.Current()
	fn(id, ok)

	return func() {
		s.mu.Lock()
		delete(s.watchers, key)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	id, ok := s.Current()
	s.mu.Lock()
	fns := make([]func(Identity, bool), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(id, ok)
	}
}
