package notify

import "testing"

func TestChannelFor(t *testing.T) {
	global := ChannelFor(true)
	if global.Name != "global_complaints" || global.Importance != "high" {
		t.Errorf("global channel: %+v", global)
	}
	if len(global.Vibration) != 6 {
		t.Errorf("global vibration pattern length = %d, want 6", len(global.Vibration))
	}

	dept := ChannelFor(false)
	if dept.Name != "department_complaints" || dept.Importance != "default" {
		t.Errorf("department channel: %+v", dept)
	}
	if len(dept.Vibration) != 3 {
		t.Errorf("department vibration pattern length = %d, want 3", len(dept.Vibration))
	}
}
