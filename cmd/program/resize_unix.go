//go:build !windows
// +build !windows

package program

import (
	"os"
	"os/signal"
	"syscall"
)

// monitorResize uses SIGWINCH signal on Unix systems for efficient resize detection
func (r *repl) monitorResize(stop <-chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGWINCH)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-stop:
			return
		case <-sigChan:
			width, _ := getTerminalSize()
			r.setTerminalWidth(width)
		}
	}
}
