package joystick

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jochenvg/go-udev"
	"github.com/pkg/errors"
)

// udevJoystickNodes returns the evdev nodes udev tagged as joysticks
func udevJoystickNodes() ([]string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()

	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, errors.Wrap(err, "failed to match input subsystem")
	}
	if err := e.AddMatchProperty("ID_INPUT_JOYSTICK", "1"); err != nil {
		return nil, errors.Wrap(err, "failed to match joystick property")
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return nil, errors.Wrap(err, "failed to match initialized devices")
	}

	devices, err := e.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate udev devices")
	}

	nodes := make([]string, 0, len(devices))
	for _, d := range devices {
		node := d.Devnode()
		if !strings.HasPrefix(filepath.Base(node), "event") {
			// js* and the parent input device are not evdev nodes
			continue
		}
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	return nodes, nil
}
