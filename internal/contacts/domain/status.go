// Package domain holds the contact lifecycle rules shared by service,
// repository and transport layers.
package domain

// Status is the lifecycle state of a contact.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// statusRank orders the lifecycle. Transitions only ever move to a
// strictly higher rank, so closed is terminal and new -> closed is a
// legal shortcut.
var statusRank = map[Status]int{
	StatusNew:        0,
	StatusInProgress: 1,
	StatusClosed:     2,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusClosed
}

// CanTransition reports whether a contact may move from one status to
// another. Both statuses must be valid and the move strictly forward.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
