// Package input provides the shared controller event queue and the readers
// that feed it.
package input

import "time"

// Kind classifies an input event
type Kind int

const (
	Other Kind = iota
	Button
	Axis
	Hat
)

func (k Kind) String() string {
	switch k {
	case Button:
		return "button"
	case Axis:
		return "axis"
	case Hat:
		return "hat"
	default:
		return "other"
	}
}

// IsControl reports whether the kind is one the blocker discards.
func (k Kind) IsControl() bool {
	return k == Button || k == Axis || k == Hat
}

// Event is one event read from a controller
type Event struct {
	Device string    `json:"device"` // Controller display name
	Path   string    `json:"path"`   // evdev node the event came from
	Kind   Kind      `json:"kind"`
	Type   uint16    `json:"type"` // Raw evdev event type
	Code   uint16    `json:"code"`
	Value  int32     `json:"value"`
	Time   time.Time `json:"time"`
}

// Source is an open controller that can be read from
type Source interface {
	// ReadEvents blocks until at least one event is available
	ReadEvents() ([]Event, error)

	// Close releases the device and unblocks a pending ReadEvents
	Close() error
}

// Opener opens a controller node for reading
type Opener func(path, name string) (Source, error)
