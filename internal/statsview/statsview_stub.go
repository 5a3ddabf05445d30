//go:build !statsview
// +build !statsview

// Package statsview serves runtime statistics of the emulator process over
// HTTP. This build does not include it; rebuild with -tags statsview.
package statsview

// Launch does nothing in this build
func Launch() func() {
	return func() {}
}

// Available returns true if a statsview is available to launch
func Available() bool {
	return false
}
