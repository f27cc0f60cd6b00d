package session

// Navigator holds the current position within an ordered question list.
// It carries no question content, only the index, which stays within
// [0, count) whenever the list is non-empty.
type Navigator struct {
	count   int
	current int
}

// NewNavigator creates a navigator over count questions, positioned at 0.
func NewNavigator(count int) Navigator {
	if count < 0 {
		count = 0
	}
	return Navigator{count: count}
}

// GoTo moves to index i. Out-of-range values are clamped rather than
// rejected. Returns true if the position changed.
func (n *Navigator) GoTo(i int) bool {
	if n.count == 0 {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i >= n.count {
		i = n.count - 1
	}
	if i == n.current {
		return false
	}
	n.current = i
	return true
}

// Next advances one question. No-op on the last question.
func (n *Navigator) Next() bool {
	return n.GoTo(n.current + 1)
}

// Prev moves back one question. No-op on the first question.
func (n *Navigator) Prev() bool {
	return n.GoTo(n.current - 1)
}

// Index returns the current position.
func (n *Navigator) Index() int {
	return n.current
}

// Count returns the number of questions.
func (n *Navigator) Count() int {
	return n.count
}

// AtLast reports whether the navigator is on the final question.
func (n *Navigator) AtLast() bool {
	return n.count > 0 && n.current == n.count-1
}
