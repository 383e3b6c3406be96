package session

import "github.com/thomas/eva-cart-go/internal/cart"

// EventKind identifies what changed in a session.
type EventKind int

const (
	EventItemAdded EventKind = iota + 1
	EventItemRemoved
	EventQuantityChanged
	EventCleared
	EventContextChanged
	EventReloaded
	EventDrawerOpened
	EventDrawerClosed
)

func (k EventKind) String() string {
	switch k {
	case EventItemAdded:
		return "item_added"
	case EventItemRemoved:
		return "item_removed"
	case EventQuantityChanged:
		return "quantity_changed"
	case EventCleared:
		return "cleared"
	case EventContextChanged:
		return "context_changed"
	case EventReloaded:
		return "reloaded"
	case EventDrawerOpened:
		return "drawer_opened"
	case EventDrawerClosed:
		return "drawer_closed"
	}
	return "unknown"
}

// Event is delivered to subscribers after the change is persisted and
// projected. Key is the affected identity key, empty for cart-wide events.
type Event struct {
	Kind     EventKind
	Key      string
	Snapshot cart.Snapshot
}

// Listener receives session events. It runs on the goroutine that made the
// change, after the session lock is released.
type Listener func(Event)
