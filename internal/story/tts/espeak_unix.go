//go:build unix

package tts

import "syscall"

// pauseProcess freezes the running eSpeak process.
func (e *ESpeakEngine) pauseProcess() error {
	return e.cmd.Process.Signal(syscall.SIGSTOP)
}

// resumeProcess continues a frozen eSpeak process.
func (e *ESpeakEngine) resumeProcess() error {
	return e.cmd.Process.Signal(syscall.SIGCONT)
}
