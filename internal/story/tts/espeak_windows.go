//go:build windows

package tts

import "fmt"

// pauseProcess has no SIGSTOP equivalent on Windows, so the headline is cut
// short instead.
func (e *ESpeakEngine) pauseProcess() error {
	e.stopped = true
	return e.cmd.Process.Kill()
}

// resumeProcess cannot bring back a killed process.
func (e *ESpeakEngine) resumeProcess() error {
	return fmt.Errorf("resume not supported on Windows")
}
