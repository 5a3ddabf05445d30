package main

import (
	"reflect"
	"testing"
)

func TestParseFrameList(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
		wantErr  bool
	}{
		{"1", []int{1}, false},
		{"1, 60,120", []int{1, 60, 120}, false},
		{"5,,6", []int{5, 6}, false},
		{"0", nil, true},
		{"x", nil, true},
	}

	for _, tt := range tests {
		got, err := parseFrameList(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %q", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Expected %v for %q, got %v", tt.expected, tt.input, got)
		}
	}
}
