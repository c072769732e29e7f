package editor

import "sync"

// Status is a named editor flag.
type Status string

const (
	StatusFocus     Status = "FOCUS"
	StatusReadOnly  Status = "READONLY"
	StatusComposing Status = "COMPOSING"
	StatusMounted   Status = "MOUNTED"
)

// StatusSet holds boolean editor flags. Unset flags are false.
type StatusSet struct {
	mu    sync.RWMutex
	flags map[Status]bool
}

func (s *StatusSet) Get(key Status) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key]
}

func (s *StatusSet) Set(key Status, value bool) *StatusSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags == nil {
		s.flags = make(map[Status]bool)
	}
	s.flags[key] = value
	return s
}

func (s *StatusSet) IsFocused() bool   { return s.Get(StatusFocus) }
func (s *StatusSet) IsReadOnly() bool  { return s.Get(StatusReadOnly) }
func (s *StatusSet) IsComposing() bool { return s.Get(StatusComposing) }
