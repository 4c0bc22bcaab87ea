package tts

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// MockTTSEngine prints what it would say and remembers it.
type MockTTSEngine struct {
	mu      sync.Mutex
	out     io.Writer
	spoken  []string
	playing bool
	paused  bool
	speed   float64
	volume  float64
	voice   string
}

func NewMockTTSEngine(c Config) *MockTTSEngine {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	voice := c.Voice
	if voice == "" {
		voice = "default"
	}
	return &MockTTSEngine{
		out:    out,
		speed:  c.Speed,
		volume: c.Volume,
		voice:  voice,
	}
}

func (m *MockTTSEngine) Speak(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.spoken = append(m.spoken, text)
	color.New(color.FgYellow).Fprintf(m.out, "🔊 %s\n", text)
	return nil
}

// Spoken returns everything passed to Speak so far.
func (m *MockTTSEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// Settings reports the current voice, speed and volume.
func (m *MockTTSEngine) Settings() (string, float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voice, m.speed, m.volume
}

func (m *MockTTSEngine) GetAvailableVoices() ([]string, error) {
	return []string{"mock-voice"}, nil
}

func (m *MockTTSEngine) SetVoice(voice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voice = voice
	return nil
}

func (m *MockTTSEngine) SetSpeed(speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speed = speed
	return nil
}

func (m *MockTTSEngine) SetVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

func (m *MockTTSEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.paused = false
	return nil
}

func (m *MockTTSEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.paused = true
	}
	return nil
}

func (m *MockTTSEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

func (m *MockTTSEngine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing && !m.paused
}
