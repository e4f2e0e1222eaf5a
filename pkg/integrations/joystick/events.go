package joystick

import (
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"

	"controllerblocker/pkg/input"
)

// Button ranges missing from older evdev code tables.
const (
	btnDpadUp          = 0x220
	btnDpadRight       = 0x223
	btnTriggerHappy1   = 0x2c0
	btnTriggerHappy40  = 0x2e7
	absHatFirst        = evdev.ABS_HAT0X
	absHatLast         = evdev.ABS_HAT3Y
	btnJoystickFirst   = evdev.BTN_JOYSTICK
	btnGamepadLastCode = evdev.BTN_THUMBR
)

// Classify maps a raw evdev type and code to an event kind. Joystick, gamepad
// and trigger-happy keys are buttons, hat axes and d-pad keys are hats, any
// other absolute axis is an axis.
func Classify(typ, code uint16) input.Kind {
	switch typ {
	case evdev.EV_KEY:
		switch {
		case code >= btnJoystickFirst && code <= btnGamepadLastCode:
			return input.Button
		case code >= btnTriggerHappy1 && code <= btnTriggerHappy40:
			return input.Button
		case code >= btnDpadUp && code <= btnDpadRight:
			return input.Hat
		}
	case evdev.EV_ABS:
		if code >= absHatFirst && code <= absHatLast {
			return input.Hat
		}
		return input.Axis
	}
	return input.Other
}

type source struct {
	dev  *evdev.InputDevice
	name string
}

// Open opens a controller node for reading; it satisfies input.Opener.
func Open(path, name string) (input.Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	if name == "" {
		name = dev.Name
	}
	return &source{dev: dev, name: name}, nil
}

func (s *source) ReadEvents() ([]input.Event, error) {
	raw, err := s.dev.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.dev.Fn)
	}

	events := make([]input.Event, 0, len(raw))
	for _, ev := range raw {
		events = append(events, input.Event{
			Device: s.name,
			Path:   s.dev.Fn,
			Kind:   Classify(ev.Type, ev.Code),
			Type:   ev.Type,
			Code:   ev.Code,
			Value:  ev.Value,
			Time:   time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*int64(time.Microsecond)),
		})
	}
	return events, nil
}

func (s *source) Close() error {
	return s.dev.File.Close()
}
