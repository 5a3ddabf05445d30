//go:build !linux && !darwin

package graphics

import (
	"fmt"
	"os"
	"runtime"
)

func enterCBreak(f *os.File) (func(), error) {
	return nil, fmt.Errorf("cbreak mode not supported on %s", runtime.GOOS)
}
