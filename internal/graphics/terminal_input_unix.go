//go:build linux || darwin

package graphics

import (
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// enterCBreak switches f to cbreak mode and returns a function restoring
// the previous attributes
func enterCBreak(f *os.File) (func(), error) {
	var canonical unix.Termios
	if err := termios.Tcgetattr(f.Fd(), &canonical); err != nil {
		return nil, err
	}

	cbreak := canonical
	termios.Cfmakecbreak(&cbreak)
	if err := termios.Tcsetattr(f.Fd(), termios.TCSANOW, &cbreak); err != nil {
		return nil, err
	}

	return func() {
		termios.Tcsetattr(f.Fd(), termios.TCSANOW, &canonical)
	}, nil
}
