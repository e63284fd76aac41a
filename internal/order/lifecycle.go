package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// rank orders the forward lifecycle; cancelled sits outside it.
var rank = map[Status]int{
	StatusPending:   1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusCompleted: 4,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := rank[s]
	return ok
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Label is the human-readable column title.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPreparing:
		return "Preparing"
	case StatusReady:
		return "Ready"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// CanTransition reports whether an order in from may move to to. Any
// non-terminal order may be cancelled; otherwise moves only go forward.
func CanTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from == to || from.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == StatusCancelled {
		return nil
	}
	if rank[to] <= rank[from] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Action is the button the kitchen board shows for advancing an order.
type Action struct {
	Label  string `json:"label"`
	Target Status `json:"target"`
}

// NextAction returns the single forward step the dashboard offers for s.
func NextAction(s Status) (Action, bool) {
	switch s {
	case StatusPending:
		return Action{Label: "Start preparing", Target: StatusPreparing}, true
	case StatusPreparing:
		return Action{Label: "Mark ready", Target: StatusReady}, true
	case StatusReady:
		return Action{Label: "Complete", Target: StatusCompleted}, true
	default:
		return Action{}, false
	}
}
