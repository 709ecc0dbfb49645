package device

// EventKind identifies the link-layer event being delivered.
type EventKind int

const (
	// EventLinkUp signals the transport-level connection is established.
	EventLinkUp EventKind = iota
	// EventLinkDown signals the link was lost or a dial attempt failed.
	EventLinkDown
	// EventServices carries the outcome of a service discovery pass.
	EventServices
	// EventNotification carries a characteristic value notification.
	EventNotification
)

func (k EventKind) String() string {
	switch k {
	case EventLinkUp:
		return "link_up"
	case EventLinkDown:
		return "link_down"
	case EventServices:
		return "services_discovered"
	case EventNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Event is one link-layer event. Which fields are set depends on Kind:
// EventServices carries either Catalog (success) or Err (non-success
// status); EventNotification carries Char and Data.
type Event struct {
	Kind    EventKind
	Catalog *Catalog
	Err     error
	Char    string
	Data    []byte
}
