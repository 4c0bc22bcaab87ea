// Cross-platform eSpeak implementation
package tts

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// ESpeakEngine implements TTS using eSpeak/eSpeak-NG. Speak blocks until
// the sentence has been read so headlines come out in order.
type ESpeakEngine struct {
	config  Config
	path    string
	cmd     *exec.Cmd
	playing bool
	paused  bool
	stopped bool
	mutex   sync.RWMutex
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &ESpeakEngine{config: config, path: espeakPath}, nil
}

// args builds the eSpeak command line for text.
func (e *ESpeakEngine) args(text string) []string {
	args := []string{}

	if e.config.Voice != "" && e.config.Voice != "default" {
		args = append(args, "-v", e.config.Voice)
	}

	// words per minute, eSpeak default is 175
	speed := e.config.Speed
	if speed <= 0 {
		speed = 1.0
	}
	args = append(args, "-s", strconv.Itoa(int(175*speed)))

	// amplitude 0-200, eSpeak default is 100
	volume := e.config.Volume
	if volume <= 0 {
		volume = 1.0
	}
	args = append(args, "-a", strconv.Itoa(int(100*volume)))

	return append(args, text)
}

func (e *ESpeakEngine) Speak(text string) error {
	e.mutex.Lock()
	if e.playing {
		e.mutex.Unlock()
		return fmt.Errorf("already playing")
	}
	cmd := exec.Command(e.path, e.args(text)...)
	e.cmd = cmd
	e.playing = true
	e.paused = false
	e.stopped = false
	e.mutex.Unlock()

	err := cmd.Run()

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.playing = false
	e.paused = false

	if err != nil && !e.stopped {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("eSpeak exited: %w", err)
		}
		return fmt.Errorf("eSpeak error: %w", err)
	}
	return nil
}

func (e *ESpeakEngine) Stop() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.playing && e.cmd != nil && e.cmd.Process != nil {
		e.stopped = true
		if err := e.cmd.Process.Kill(); err != nil {
			return err
		}
	}

	e.paused = false
	return nil
}

func (e *ESpeakEngine) Pause() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.playing || e.paused || e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	if err := e.pauseProcess(); err != nil {
		return err
	}
	e.paused = true
	return nil
}

func (e *ESpeakEngine) Resume() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.paused || e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	if err := e.resumeProcess(); err != nil {
		return err
	}
	e.paused = false
	return nil
}

func (e *ESpeakEngine) SetVoice(voice string) error {
	voices, err := e.GetAvailableVoices()
	if err != nil {
		return err
	}

	for _, v := range voices {
		if v == voice {
			e.mutex.Lock()
			e.config.Voice = voice
			e.mutex.Unlock()
			return nil
		}
	}
	return fmt.Errorf("voice '%s' not available", voice)
}

func (e *ESpeakEngine) SetSpeed(speed float64) error {
	if speed <= 0 || speed > 3.0 {
		return fmt.Errorf("speed must be between 0.1 and 3.0")
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.config.Speed = speed
	return nil
}

func (e *ESpeakEngine) SetVolume(volume float64) error {
	if volume < 0 || volume > 2.0 {
		return fmt.Errorf("volume must be between 0 and 2.0")
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.config.Volume = volume
	return nil
}

func (e *ESpeakEngine) IsPlaying() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.playing && !e.paused
}

func (e *ESpeakEngine) GetAvailableVoices() ([]string, error) {
	output, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

// parseESpeakVoices reads the VoiceName column of `espeak --voices`:
// Pty Language Age/Gender VoiceName File Other Languages
func parseESpeakVoices(output string) []string {
	voices := make([]string, 0)

	for i, line := range strings.Split(output, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, fields[3])
		}
	}

	return voices
}
