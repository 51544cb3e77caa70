//go:build !ci

package sound

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = beep.SampleRate(44100)

// SoundManager plays short synthesized cues. The reaction beep must
// reach the speaker with as little latency as possible, so all tones
// are pre-rendered into buffers at init time.
type SoundManager struct {
	buffers map[string]*beep.Buffer
	enabled bool
}

func NewSoundManager() *SoundManager {
	return &SoundManager{
		buffers: make(map[string]*beep.Buffer),
		enabled: false,
	}
}

func (sm *SoundManager) Init() error {
	// Small speaker buffer for lower latency
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	sm.enabled = true

	// The "go" cue fires when the round arms; the rest are feedback.
	sm.buffers["go"] = renderTone(880, 150*time.Millisecond)
	sm.buffers["early"] = renderTone(220, 250*time.Millisecond)
	sm.buffers["resolve"] = renderTone(660, 120*time.Millisecond)
	return nil
}

// renderTone renders a sine tone with a short fade-out to avoid clicks
func renderTone(freq float64, d time.Duration) *beep.Buffer {
	n := sampleRate.N(d)
	fade := n / 5
	i := 0

	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		filled := 0
		for filled < len(samples) && i < n {
			v := 0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
			if rem := n - i; rem < fade {
				v *= float64(rem) / float64(fade)
			}
			samples[filled][0] = v
			samples[filled][1] = v
			filled++
			i++
		}
		return filled, filled > 0
	})

	buffer := beep.NewBuffer(beep.Format{
		SampleRate:  sampleRate,
		NumChannels: 2,
		Precision:   4,
	})
	buffer.Append(tone)
	return buffer
}

func (sm *SoundManager) Play(name string) {
	if !sm.enabled {
		return
	}

	buffer, ok := sm.buffers[name]
	if !ok {
		// Silent failure if cue not found
		return
	}

	speaker.Play(buffer.Streamer(0, buffer.Len()))
}

func (sm *SoundManager) Close() {
	sm.enabled = false
}
