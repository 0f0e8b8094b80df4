// Package history keeps the page offsets visited while reading forward so
// the reader can step back through them.
package history

// DefaultCapacity is the default number of remembered pages.
const DefaultCapacity = 500

// Stack is a bounded LIFO of page start offsets. A full stack rejects new
// entries instead of dropping old ones.
type Stack struct {
	entries  []int
	capacity int
}

func New(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{entries: make([]int, 0, capacity), capacity: capacity}
}

// Push records off. It reports false when the stack is full.
func (s *Stack) Push(off int) bool {
	if len(s.entries) >= s.capacity {
		return false
	}
	s.entries = append(s.entries, off)
	return true
}

// Pop removes and returns the most recent offset. It reports false when the
// stack is empty.
func (s *Stack) Pop() (int, bool) {
	n := len(s.entries)
	if n == 0 {
		return 0, false
	}
	off := s.entries[n-1]
	s.entries = s.entries[:n-1]
	return off, true
}

// Reset empties the stack and records first, the start of a newly opened
// book.
func (s *Stack) Reset(first int) {
	s.entries = s.entries[:0]
	s.entries = append(s.entries, first)
}

func (s *Stack) Len() int { return len(s.entries) }

func (s *Stack) Cap() int { return s.capacity }
