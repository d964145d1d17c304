//go:build windows
// +build windows

package program

import (
	"time"
)

// monitorResize uses polling on Windows since there's no SIGWINCH equivalent
func (r *repl) monitorResize(stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			width, _ := getTerminalSize()
			if width != r.terminalWidth() {
				r.setTerminalWidth(width)
			}
		}
	}
}
