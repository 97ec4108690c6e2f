package order

// Status is the server-owned order lifecycle state. The console never invents
// states; it only mirrors what the platform reports and asks for the next
// legal transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked_up"
	StatusOnWay     Status = "on_way"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// forward is the linear progression of the lifecycle. Cancellation is handled
// separately: reachable from any non-terminal state, admin-side only.
var forward = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusPickedUp,
	StatusPickedUp:  StatusOnWay,
	StatusOnWay:     StatusDelivered,
}

// Known reports whether s is one of the lifecycle states.
func (s Status) Known() bool {
	if _, ok := forward[s]; ok {
		return true
	}
	return s == StatusDelivered || s == StatusCancelled
}

// Terminal reports whether the order can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal transition. There are
// no backward transitions.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return from.Known()
	}
	return forward[from] == to
}

// NextDriverAction returns the status a driver may advance the order to.
// Drivers only handle the delivery leg: ready -> picked_up -> on_way ->
// delivered. Any other status yields no action.
func NextDriverAction(s Status) (Status, bool) {
	switch s {
	case StatusReady:
		return StatusPickedUp, true
	case StatusPickedUp:
		return StatusOnWay, true
	case StatusOnWay:
		return StatusDelivered, true
	default:
		return "", false
	}
}
