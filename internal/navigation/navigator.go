package navigation

import "sync"

// Navigator abstracts the screen history the client core manipulates.
// Push adds a destination on top of the history; Reset replaces the whole
// history with a single entry, which guarantees the back gesture cannot
// return to whatever was on screen before.
type Navigator interface {
	Push(Route)
	Reset(Route)
	Current() Route
	Depth() int
}

// Stack is a slice-backed Navigator. It is the real navigator for the
// terminal shell and the reference implementation for tests.
type Stack struct {
	mu      sync.Mutex
	entries []Route
}

// NewStack returns a Stack whose history contains only the given entry.
func NewStack(initial Route) *Stack {
	return &Stack{entries: []Route{initial}}
}

func (s *Stack) Push(r Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, r)
}

func (s *Stack) Reset(r Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Route{r}
}

func (s *Stack) Current() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return RouteLanding
	}
	return s.entries[len(s.entries)-1]
}

func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// History returns a copy of the current history, oldest first.
func (s *Stack) History() []Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Route, len(s.entries))
	copy(out, s.entries)
	return out
}
