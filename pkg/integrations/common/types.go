package common

// Controller represents an attached game controller
type Controller struct {
	// Name is the display name reported by the device; not unique
	Name string `json:"name"`

	// Path is the evdev node (e.g. "/dev/input/event17") and acts as the device handle
	Path string `json:"path"`

	// Vendor and Product are the USB/Bluetooth identifiers
	Vendor  uint16 `json:"vendor"`
	Product uint16 `json:"product"`

	// Capability counts
	Buttons int `json:"buttons"`
	Axes    int `json:"axes"`
	Hats    int `json:"hats"`
}

// ControllerEnumerator lists currently attached controllers
type ControllerEnumerator interface {
	// List re-enumerates all attached controllers
	List() ([]Controller, error)

	// IsAvailable checks if this enumerator can run on the current system
	IsAvailable() bool
}

// ByName builds the name -> controller mapping. On duplicate names the last
// device listed wins.
func ByName(controllers []Controller) map[string]Controller {
	mapping := make(map[string]Controller, len(controllers))
	for _, c := range controllers {
		mapping[c.Name] = c
	}
	return mapping
}
