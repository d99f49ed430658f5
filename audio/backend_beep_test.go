package audio

import (
	"math"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// newBeepTestBackend builds a BeepBackend with the master chain installed
// but no speaker device, plus one preloaded silent buffer
func newBeepTestBackend() (*BeepBackend, BufferID) {
	b := NewBeepBackend(44100, 4)
	b.mixer = &beep.Mixer{}
	b.master = &effects.Volume{Streamer: b.mixer, Base: 2}

	buf := beep.NewBuffer(b.format)
	buf.Append(beep.Silence(64))
	b.mu.Lock()
	id := b.nextBuffer
	b.nextBuffer++
	b.buffers[id] = buf
	b.mu.Unlock()
	return b, id
}

// TestBeepPlayRoutesThroughMaster verifies a playing voice joins the
// backend's own mixer, which streams through the master volume stage
func TestBeepPlayRoutesThroughMaster(t *testing.T) {
	b, buf := newBeepTestBackend()

	id := b.CreateSource()
	if id == 0 {
		t.Fatal("Expected a source id")
	}
	b.ConfigureSource(id, 1, 1, false, buf)
	b.PlaySource(id)

	if b.mixer.Len() != 1 {
		t.Fatalf("Expected 1 voice on the backend mixer, got %d", b.mixer.Len())
	}

	b.SetListenerGain(0.25)
	if b.master.Silent {
		t.Error("Expected master not silent at gain 0.25")
	}
	if got := b.master.Volume; math.Abs(got-math.Log2(0.25)) > 1e-12 {
		t.Errorf("Expected master volume log2(0.25), got %f", got)
	}
	b.SetListenerGain(0)
	if !b.master.Silent {
		t.Error("Expected master silent at gain 0")
	}
}

// TestBeepPlayAddsVoiceOnce verifies repeated plays and same-frame
// stop-then-reuse never produce duplicate mixer entries
func TestBeepPlayAddsVoiceOnce(t *testing.T) {
	b, buf := newBeepTestBackend()

	id := b.CreateSource()
	b.ConfigureSource(id, 1, 1, false, buf)
	b.PlaySource(id)
	b.PlaySource(id)
	if b.mixer.Len() != 1 {
		t.Fatalf("Expected 1 voice after repeated play, got %d", b.mixer.Len())
	}

	// Stop and reconfigure before the mixer's next pass: the old entry
	// is still live, so play must not add a second one
	b.StopSource(id)
	b.ConfigureSource(id, 1, 1, false, buf)
	b.PlaySource(id)
	if b.mixer.Len() != 1 {
		t.Errorf("Expected 1 voice after stop-and-reuse, got %d", b.mixer.Len())
	}
}

// TestBeepDrainedVoiceRejoinsMixer verifies a voice the mixer dropped is
// added back on its next play
func TestBeepDrainedVoiceRejoinsMixer(t *testing.T) {
	b, buf := newBeepTestBackend()

	id := b.CreateSource()
	b.ConfigureSource(id, 1, 1, false, buf)
	b.PlaySource(id)

	b.StopSource(id)
	samples := make([][2]float64, 16)
	b.mixer.Stream(samples)
	if b.mixer.Len() != 0 {
		t.Fatalf("Expected stopped voice dropped by the mixer, got %d", b.mixer.Len())
	}
	if b.SourcePlaying(id) {
		t.Error("Expected stopped voice not playing")
	}

	b.ConfigureSource(id, 1, 1, false, buf)
	b.PlaySource(id)
	if b.mixer.Len() != 1 {
		t.Errorf("Expected replayed voice back on the mixer, got %d", b.mixer.Len())
	}
	if !b.SourcePlaying(id) {
		t.Error("Expected replayed voice playing")
	}
}
