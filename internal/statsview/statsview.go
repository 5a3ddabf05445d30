//go:build statsview
// +build statsview

// Package statsview serves runtime statistics of the emulator process over
// HTTP. It is only built with the statsview build tag.
//
// Charts are served at localhost:12600/debug/statsview and pprof data at
// localhost:12600/debug/pprof/.
package statsview

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/golang/glog"
)

// Address is where the server listens
const Address = "localhost:12600"

const url = "/debug/statsview"

// Launch starts the server on its own goroutine and returns a function
// stopping it
func Launch() func() {
	viewer.SetConfiguration(viewer.WithAddr(Address))
	mgr := statsview.New()
	go mgr.Start()

	glog.Infof("statsview: available at http://%s%s", Address, url)
	return mgr.Stop
}

// Available returns true if a statsview is available to launch
func Available() bool {
	return true
}
