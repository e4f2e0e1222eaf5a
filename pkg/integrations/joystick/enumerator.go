package joystick

import (
	"log"
	"os"
	"path/filepath"
	"sort"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"

	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/common"
)

const defaultEventGlob = "/dev/input/event*"

// Enumerator lists attached game controllers. Candidate nodes come from udev
// when it knows about joysticks, otherwise every evdev node is checked.
type Enumerator struct {
	eventGlob string
	udev      func() ([]string, error)
}

// NewEnumerator creates an enumerator backed by udev and evdev
func NewEnumerator() *Enumerator {
	return &Enumerator{
		eventGlob: defaultEventGlob,
		udev:      udevJoystickNodes,
	}
}

// IsAvailable checks if the evdev input directory exists
func (e *Enumerator) IsAvailable() bool {
	_, err := os.Stat(filepath.Dir(e.eventGlob))
	return err == nil
}

// List opens each candidate node, reads its name and capabilities, and closes
// it again. Nodes that cannot be opened are skipped.
func (e *Enumerator) List() ([]common.Controller, error) {
	paths, fromUdev, err := e.candidates()
	if err != nil {
		return nil, err
	}

	controllers := make([]common.Controller, 0, len(paths))
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			if fromUdev {
				log.Printf("Cannot open controller %s: %v", path, err)
			}
			continue
		}

		c, ok := Describe(dev)
		dev.File.Close()

		// udev already decided this is a joystick; trust it over our
		// capability heuristic.
		if ok || fromUdev {
			controllers = append(controllers, c)
		}
	}

	return controllers, nil
}

func (e *Enumerator) candidates() ([]string, bool, error) {
	if e.udev != nil {
		nodes, err := e.udev()
		if err != nil {
			log.Printf("udev enumeration failed, probing evdev nodes: %v", err)
		} else if len(nodes) > 0 {
			return nodes, true, nil
		}
	}

	paths, err := filepath.Glob(e.eventGlob)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to list input devices")
	}
	sort.Strings(paths)
	return paths, false, nil
}

// Describe builds the controller record for an open device and reports
// whether its capabilities look like a game controller.
func Describe(dev *evdev.InputDevice) (common.Controller, bool) {
	c := common.Controller{
		Name:    dev.Name,
		Path:    dev.Fn,
		Vendor:  dev.Vendor,
		Product: dev.Product,
	}

	absHats, dpadButtons := 0, 0
	for capType, codes := range dev.Capabilities {
		if capType.Type != evdev.EV_KEY && capType.Type != evdev.EV_ABS {
			continue
		}
		for _, code := range codes {
			switch Classify(uint16(capType.Type), uint16(code.Code)) {
			case input.Button:
				c.Buttons++
			case input.Axis:
				c.Axes++
			case input.Hat:
				if capType.Type == evdev.EV_ABS {
					absHats++
				} else {
					dpadButtons++
				}
			}
		}
	}
	// A hat reports an X and a Y axis; a d-pad exposed as buttons counts as one hat.
	c.Hats = (absHats + 1) / 2
	if c.Hats == 0 && dpadButtons > 0 {
		c.Hats = 1
	}

	return c, c.Buttons > 0
}
