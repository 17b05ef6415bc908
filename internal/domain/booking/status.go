package booking

import "errors"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrIllegalTransition = errors.New("illegal booking status transition")

// ErrWrongActor signals the caller's role does not permit the target status.
var ErrWrongActor = errors.New("caller may not set this status")

// legal transitions; rejected/completed/cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Actor on a status change: the booking's provider accepts/rejects/completes,
// the booking's user may only cancel.
type Actor int

const (
	ActorProvider Actor = iota
	ActorUser
)

func (a Actor) MaySet(next Status) bool {
	switch a {
	case ActorProvider:
		return next == StatusAccepted || next == StatusRejected || next == StatusCompleted
	case ActorUser:
		return next == StatusCancelled
	}
	return false
}

// Transition validates a status change end to end for the given actor.
func Transition(current, next Status, actor Actor) error {
	if !next.Valid() {
		return ErrIllegalTransition
	}

	if !actor.MaySet(next) {
		return ErrWrongActor
	}

	if !current.CanTransitionTo(next) {
		return ErrIllegalTransition
	}

	return nil
}
