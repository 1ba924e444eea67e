package primitives

import "testing"

func TestNewEvent(t *testing.T) {
	e := NewEvent("test", 42)
	if e.Type != "test" {
		t.Errorf("got Type=%q want test", e.Type)
	}
	if v, ok := e.Data.(int); !ok || v != 42 {
		t.Errorf("got Data=%v (%T) want 42", e.Data, e.Data)
	}
}

func TestEventCopyLeavesOriginal(t *testing.T) {
	e := NewEvent("test", 42)
	eCopy := e
	eCopy.Type = "modified"
	eCopy.Data = "changed"
	if e.Type != "test" {
		t.Error("original Type was mutated")
	}
	if v, ok := e.Data.(int); !ok || v != 42 {
		t.Error("original Data was mutated")
	}
}

func TestValidateEventName(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		wantErr bool
	}{
		{"simple", "go", false},
		{"dotted", "door.lock.engaged", false},
		{"empty", "", true},
		{"wildcard", "door.*", true},
		{"empty segment", "door..open", true},
		{"trailing dot", "door.", true},
		{"space", "door open", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventName(tt.event)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEventName(%q) = %v, wantErr %v", tt.event, err, tt.wantErr)
			}
		})
	}
}

func TestDoneEvent(t *testing.T) {
	if got := DoneEvent("checkout"); got != "done.state.checkout" {
		t.Errorf("DoneEvent = %q", got)
	}
}
