package order

// transitions is the complete edge set of the order lifecycle. Completed and
// cancelled are terminal; nothing past confirmed can be cancelled by staff.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCooking, StatusCancelled},
	StatusCooking:   {StatusReady},
	StatusReady:     {StatusCompleted},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// NextStates returns the statuses reachable from s in one step.
func (s Status) NextStates() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// checkTransition returns a *TransitionError naming both states when the
// edge does not exist.
func checkTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
