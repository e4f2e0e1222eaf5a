package common

import "testing"

func TestByName(t *testing.T) {
	controllers := []Controller{
		{Name: "Gamepad1", Path: "/dev/input/event10"},
		{Name: "Arcade Stick", Path: "/dev/input/event11"},
		{Name: "Gamepad1", Path: "/dev/input/event12"},
	}

	mapping := ByName(controllers)

	if len(mapping) != 2 {
		t.Fatalf("len(mapping) = %d, want 2", len(mapping))
	}
	if got := mapping["Gamepad1"].Path; got != "/dev/input/event12" {
		t.Errorf("Gamepad1 path = %s, want the last listed device", got)
	}
}

func TestByNameEmpty(t *testing.T) {
	mapping := ByName(nil)
	if mapping == nil || len(mapping) != 0 {
		t.Errorf("ByName(nil) = %v, want empty non-nil map", mapping)
	}
}
