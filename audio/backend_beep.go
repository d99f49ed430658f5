package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/soundfield/vmath"
)

const (
	defaultSampleRate = 44100
	defaultVoiceLimit = 64

	resampleQuality = 4

	// Doppler pitch shift per unit of radial speed, in backend units.
	// Ratio is clamped so a runaway velocity cannot stall the resampler.
	dopplerScale = 0.05
	minPitch     = 0.5
	maxPitch     = 2.0
)

// beepSource is one playback voice: a streamer chain rebuilt on every
// ConfigureSource. Field access happens under the speaker lock, which is
// the same lock the playback goroutine holds while streaming.
type beepSource struct {
	chain   beep.Streamer
	res     *beep.Resampler
	pan     *effects.Pan
	vol     *effects.Volume
	gain    float64
	lastPos vmath.Vec2F
	playing bool
	inMixer bool
}

func (s *beepSource) Stream(samples [][2]float64) (int, bool) {
	if s.chain == nil {
		s.playing = false
		s.inMixer = false
		return 0, false
	}
	n, ok := s.chain.Stream(samples)
	if !ok {
		s.chain = nil
		s.playing = false
	}
	if !ok && n == 0 {
		// The mixer drops the voice on a false return.
		s.inMixer = false
		return 0, false
	}
	return n, true
}

func (s *beepSource) Err() error {
	return nil
}

// BeepBackend plays through the process speaker via gopxl/beep.
// The speaker is process-global, so at most one BeepBackend can be open.
type BeepBackend struct {
	sampleRate int
	voiceLimit int
	format     beep.Format

	mixer  *beep.Mixer
	master *effects.Volume

	// Guards the id maps; the loader calls LoadBuffer while the owner
	// goroutine drives sources.
	mu         sync.Mutex
	sources    map[SourceID]*beepSource
	buffers    map[BufferID]*beep.Buffer
	nextSource SourceID
	nextBuffer BufferID
}

// NewBeepBackend creates a speaker-backed Backend. Zero arguments pick
// the defaults (44100 Hz, 64 voices).
func NewBeepBackend(sampleRate, voiceLimit int) *BeepBackend {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if voiceLimit <= 0 {
		voiceLimit = defaultVoiceLimit
	}
	return &BeepBackend{
		sampleRate: sampleRate,
		voiceLimit: voiceLimit,
		format: beep.Format{
			SampleRate:  beep.SampleRate(sampleRate),
			NumChannels: 2,
			Precision:   2,
		},
		sources:    make(map[SourceID]*beepSource),
		buffers:    make(map[BufferID]*beep.Buffer),
		nextSource: 1,
		nextBuffer: 1,
	}
}

// Open initializes the speaker and installs the master volume stage.
func (b *BeepBackend) Open() error {
	sr := beep.SampleRate(b.sampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	b.mixer = &beep.Mixer{}
	b.master = &effects.Volume{Streamer: b.mixer, Base: 2}
	speaker.Play(b.master)
	return nil
}

// Close drops all streamers. beep provides no speaker teardown, so the
// device stays open with a silent mixer.
func (b *BeepBackend) Close() {
	speaker.Clear()
	b.mu.Lock()
	b.sources = make(map[SourceID]*beepSource)
	b.buffers = make(map[BufferID]*beep.Buffer)
	b.mu.Unlock()
}

// SetListenerGain scales the master output, 0 silences it.
func (b *BeepBackend) SetListenerGain(gain float64) {
	if b.master == nil {
		return
	}
	speaker.Lock()
	if gain <= 0 {
		b.master.Silent = true
	} else {
		b.master.Silent = false
		b.master.Volume = math.Log2(gain)
	}
	speaker.Unlock()
}

// CreateSource allocates a voice, or returns zero when the voice limit
// is reached. The pool treats zero as permanent capacity discovery.
func (b *BeepBackend) CreateSource() SourceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sources) >= b.voiceLimit {
		return 0
	}
	id := b.nextSource
	b.nextSource++
	b.sources[id] = &beepSource{gain: 1}
	return id
}

// ConfigureSource rebuilds the voice's streamer chain:
// buffer -> loop -> resampler (pitch/Doppler) -> pan -> volume.
func (b *BeepBackend) ConfigureSource(id SourceID, pitch, gain float64, looping bool, buffer BufferID) {
	b.mu.Lock()
	src := b.sources[id]
	buf := b.buffers[buffer]
	b.mu.Unlock()
	if src == nil || buf == nil {
		return
	}

	base := buf.Streamer(0, buf.Len())
	var streamer beep.Streamer = base
	if looping {
		streamer = beep.Loop(-1, base)
	}
	if pitch <= 0 {
		pitch = 1
	}
	res := beep.ResampleRatio(resampleQuality, pitch, streamer)
	pan := &effects.Pan{Streamer: res}
	vol := &effects.Volume{Streamer: pan, Base: 2}

	speaker.Lock()
	src.res = res
	src.pan = pan
	src.vol = vol
	src.chain = vol
	src.gain = gain
	src.lastPos = vmath.Vec2F{}
	src.playing = false
	applySpatial(src, vmath.Vec2F{})
	speaker.Unlock()
}

// SetSourcePosition applies distance attenuation and stereo pan.
func (b *BeepBackend) SetSourcePosition(id SourceID, pos vmath.Vec2F) {
	b.mu.Lock()
	src := b.sources[id]
	b.mu.Unlock()
	if src == nil || src.vol == nil {
		return
	}
	speaker.Lock()
	src.lastPos = pos
	applySpatial(src, pos)
	speaker.Unlock()
}

// SetSourceVelocity turns the radial velocity component into a pitch
// ratio on the voice's resampler (Doppler cue).
func (b *BeepBackend) SetSourceVelocity(id SourceID, vel vmath.Vec2F) {
	b.mu.Lock()
	src := b.sources[id]
	b.mu.Unlock()
	if src == nil || src.res == nil {
		return
	}
	speaker.Lock()
	ratio := 1.0
	if length := vmath.V2FMag(src.lastPos); length > 0 {
		toward := -vmath.V2FDot(src.lastPos, vel) / length
		ratio = 1.0 + toward*dopplerScale
		if ratio < minPitch {
			ratio = minPitch
		} else if ratio > maxPitch {
			ratio = maxPitch
		}
	}
	src.res.SetRatio(ratio)
	speaker.Unlock()
}

// PlaySource starts the configured chain on the backend's own mixer, so
// the voice streams through the master volume stage. speaker.Play would
// attach it to the speaker's global mixer instead, bypassing the master.
// A voice stopped and reconfigured within one frame is still a mixer
// member, so it is never added twice.
func (b *BeepBackend) PlaySource(id SourceID) {
	b.mu.Lock()
	src := b.sources[id]
	b.mu.Unlock()
	if src == nil || b.mixer == nil {
		return
	}
	speaker.Lock()
	if src.chain != nil {
		src.playing = true
		if !src.inMixer {
			b.mixer.Add(src)
			src.inMixer = true
		}
	}
	speaker.Unlock()
}

// StopSource drops the chain; the mixer removes the voice on its next pass.
func (b *BeepBackend) StopSource(id SourceID) {
	b.mu.Lock()
	src := b.sources[id]
	b.mu.Unlock()
	if src == nil {
		return
	}
	speaker.Lock()
	src.chain = nil
	src.playing = false
	speaker.Unlock()
}

// SourcePlaying reports whether the voice's chain is still streaming.
func (b *BeepBackend) SourcePlaying(id SourceID) bool {
	b.mu.Lock()
	src := b.sources[id]
	b.mu.Unlock()
	if src == nil {
		return false
	}
	speaker.Lock()
	playing := src.playing
	speaker.Unlock()
	return playing
}

// DestroySource stops and frees the voice.
func (b *BeepBackend) DestroySource(id SourceID) {
	b.StopSource(id)
	b.mu.Lock()
	delete(b.sources, id)
	b.mu.Unlock()
}

// LoadBuffer decodes a wav file into a backend buffer, resampling to the
// device rate when needed. Called from the loader goroutine.
func (b *BeepBackend) LoadBuffer(path string) (BufferID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}

	var s beep.Streamer = streamer
	if format.SampleRate != b.format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, b.format.SampleRate, streamer)
	}
	buf := beep.NewBuffer(b.format)
	buf.Append(s)
	streamer.Close()

	b.mu.Lock()
	id := b.nextBuffer
	b.nextBuffer++
	b.buffers[id] = buf
	b.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases the decoded samples.
func (b *BeepBackend) DestroyBuffer(id BufferID) {
	b.mu.Lock()
	delete(b.buffers, id)
	b.mu.Unlock()
}

// applySpatial maps a scaled listener-relative position onto volume and
// pan. Caller holds the speaker lock.
func applySpatial(src *beepSource, pos vmath.Vec2F) {
	if src.vol == nil || src.pan == nil {
		return
	}
	d := vmath.V2FMag(pos)
	g := src.gain / (1.0 + d*d)
	if g <= 0 {
		src.vol.Silent = true
	} else {
		src.vol.Silent = false
		src.vol.Volume = math.Log2(g)
	}
	p := pos.X / (1.0 + d)
	if p < -1 {
		p = -1
	} else if p > 1 {
		p = 1
	}
	src.pan.Pan = p
}
