package graphics

import (
	"testing"

	"gameboii/internal/input"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		want    Key
		wantErr bool
	}{
		{"ArrowUp", KeyUp, false},
		{"arrowup", KeyUp, false},
		{"X", KeyX, false},
		{"Backspace", KeyBackspace, false},
		{"F12", KeyF12, false},
		{"Hyper", KeyUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%t, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSlotKey(t *testing.T) {
	tests := map[Key]int{
		KeyF1:    0,
		KeyF2:    1,
		KeyF3:    2,
		KeyF4:    3,
		KeyF12:   -1,
		KeyEnter: -1,
	}
	for key, want := range tests {
		if got := SlotKey(key); got != want {
			t.Errorf("SlotKey(%s): expected %d, got %d", key, want, got)
		}
	}
}

func TestButtonEvents(t *testing.T) {
	keyMap := map[Key]input.Button{
		KeyX:     input.ButtonA,
		KeyEnter: input.ButtonStart,
	}
	events := buttonEvents(keyMap, []InputEvent{
		{Type: InputEventTypeKey, Key: KeyX, Pressed: true},
		{Type: InputEventTypeKey, Key: KeyF1, Pressed: true, Modifiers: ModifierShift},
		{Type: InputEventTypeKey, Key: KeyEnter, Pressed: false},
		{Type: InputEventTypeQuit, Pressed: true},
	})

	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[0].Type != InputEventTypeButton || events[0].Button != input.ButtonA || !events[0].Pressed {
		t.Errorf("Expected A pressed, got %+v", events[0])
	}
	if events[1].Type != InputEventTypeKey || events[1].Key != KeyF1 || events[1].Modifiers != ModifierShift {
		t.Errorf("Expected Shift+F1 passed through, got %+v", events[1])
	}
	if events[2].Type != InputEventTypeButton || events[2].Button != input.ButtonStart || events[2].Pressed {
		t.Errorf("Expected Start released, got %+v", events[2])
	}
	if events[3].Type != InputEventTypeQuit {
		t.Errorf("Expected quit passed through, got %+v", events[3])
	}
}

func TestCreateBackend(t *testing.T) {
	for _, bt := range []BackendType{BackendHeadless, BackendTerminal} {
		backend, err := CreateBackend(bt)
		if err != nil {
			t.Fatalf("CreateBackend(%s) failed: %v", bt, err)
		}
		if err := backend.Initialize(Config{}); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if err := backend.Initialize(Config{}); err == nil {
			t.Errorf("Expected second Initialize of %s to fail", bt)
		}
	}

	if _, err := CreateBackend("opengl"); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}
