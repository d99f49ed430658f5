package audio

import (
	"sync"

	"github.com/lixenwraith/soundfield/vmath"
)

// stubSource records everything the pool did to one channel.
type stubSource struct {
	pitch   float64
	gain    float64
	looping bool
	buffer  BufferID
	pos     vmath.Vec2F
	vel     vmath.Vec2F
	playing bool
	plays   int
	stops   int
}

// stubBackend is a scripted Backend: allocation failure is deterministic
// (maxCreate) and playback state is set directly by tests.
type stubBackend struct {
	mu sync.Mutex

	opened bool
	closed bool

	listenerGain float64

	maxCreate int // CreateSource returns 0 after this many successes; 0 = unlimited
	created   int

	nextSource SourceID
	sources    map[SourceID]*stubSource
	destroyed  []SourceID

	nextBuffer       BufferID
	buffers          map[BufferID]string
	destroyedBuffers []BufferID
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		nextSource: 1,
		nextBuffer: 1,
		sources:    make(map[SourceID]*stubSource),
		buffers:    make(map[BufferID]string),
	}
}

func (b *stubBackend) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = true
	return nil
}

func (b *stubBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *stubBackend) SetListenerGain(gain float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listenerGain = gain
}

func (b *stubBackend) CreateSource() SourceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxCreate > 0 && b.created >= b.maxCreate {
		return 0
	}
	b.created++
	id := b.nextSource
	b.nextSource++
	b.sources[id] = &stubSource{}
	return id
}

func (b *stubBackend) ConfigureSource(id SourceID, pitch, gain float64, looping bool, buffer BufferID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.pitch = pitch
		src.gain = gain
		src.looping = looping
		src.buffer = buffer
	}
}

func (b *stubBackend) SetSourcePosition(id SourceID, pos vmath.Vec2F) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.pos = pos
	}
}

func (b *stubBackend) SetSourceVelocity(id SourceID, vel vmath.Vec2F) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.vel = vel
	}
}

func (b *stubBackend) PlaySource(id SourceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.playing = true
		src.plays++
	}
}

func (b *stubBackend) StopSource(id SourceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.playing = false
		src.stops++
	}
}

func (b *stubBackend) SourcePlaying(id SourceID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		return src.playing
	}
	return false
}

func (b *stubBackend) DestroySource(id SourceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sources, id)
	b.destroyed = append(b.destroyed, id)
}

func (b *stubBackend) LoadBuffer(path string) (BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextBuffer
	b.nextBuffer++
	b.buffers[id] = path
	return id, nil
}

func (b *stubBackend) DestroyBuffer(id BufferID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, id)
	b.destroyedBuffers = append(b.destroyedBuffers, id)
}

// markFinished simulates the device reporting a one-shot sound as done.
func (b *stubBackend) markFinished(id SourceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		src.playing = false
	}
}

// source returns a copy of the recorded source state.
func (b *stubBackend) source(id SourceID) (stubSource, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src := b.sources[id]; src != nil {
		return *src, true
	}
	return stubSource{}, false
}

// newTestSound builds a loaded Sound without going through the loader.
func newTestSound(name string, looping bool, buf BufferID) *Sound {
	s := &Sound{name: name}
	s.setLoaded(buf, looping)
	return s
}
