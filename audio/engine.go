package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/soundfield/vmath"
)

// Engine is the positional-audio scheduler. Game logic requests sounds
// at positions every frame; the engine coalesces duplicate requests,
// binds them to a bounded pool of backend channels and recycles channels
// as sounds finish.
//
// Ownership: one goroutine (the one driving the frame loop) calls
// Update, Play, PlayAt and Step. Any other goroutine uses PlayDeferred,
// which parks the request until the owner's next Update. A single mutex
// guards everything both sides touch: the deferred queue, the asset
// table and the pending load list.
type Engine struct {
	cfg     *Config
	backend Backend

	// Owner-goroutine state, no lock
	queue       map[*Sound]*queueEntry
	pool        *sourcePool
	listener    vmath.Vec2F
	listenerVel vmath.Vec2F

	mu        sync.Mutex
	deferred  map[*Sound]*queueEntry
	sounds    map[string]*Sound
	loadQueue []string

	loaderQuit chan struct{}
	loaderDone chan struct{}

	volumeBits atomic.Uint64
	running    atomic.Bool
}

// New creates an engine on the given backend. A nil backend selects the
// speaker-based beep backend.
func New(backend Backend, cfg ...*Config) *Engine {
	config := DefaultConfig()
	if len(cfg) > 0 && cfg[0] != nil {
		config = cfg[0]
	}
	if backend == nil {
		backend = NewBeepBackend(config.SampleRate, 0)
	}

	e := &Engine{
		cfg:      config,
		backend:  backend,
		queue:    make(map[*Sound]*queueEntry),
		deferred: make(map[*Sound]*queueEntry),
		sounds:   make(map[string]*Sound),
		pool:     newSourcePool(backend, config.MaxSources),
	}

	volume := config.MasterVolume
	if !config.Enabled {
		volume = 0
	}
	e.volumeBits.Store(math.Float64bits(clampVolume(volume)))
	return e
}

// Start opens the device, discovers assets under the sound root and
// launches the background loader. Device failure is fatal and surfaced;
// a missing or empty sound root is not.
func (e *Engine) Start() error {
	if e.running.Load() {
		return ErrAlreadyRunning
	}

	if err := e.backend.Open(); err != nil {
		return fmt.Errorf("audio start: %w", err)
	}
	e.backend.SetListenerGain(e.Volume())

	e.loadQueue = listSoundPaths(e.cfg.SoundDir)
	if len(e.loadQueue) > 0 {
		e.loaderQuit = make(chan struct{})
		e.loaderDone = make(chan struct{})
		go e.loadLoop()
	}

	e.running.Store(true)
	return nil
}

// Running reports whether Start has succeeded and Stop not yet run.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Progress reports asset loading progress in [0,1].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.loadQueue) == 0 {
		return 1.0
	}
	done := float64(len(e.sounds))
	return done / (done + float64(len(e.loadQueue)))
}

// Volume returns the master volume.
func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volumeBits.Load())
}

// SetVolume sets the master volume, clamped to [0,1]. Zero makes every
// subsequent request a no-op but does not stop active channels.
func (e *Engine) SetVolume(level float64) {
	level = clampVolume(level)
	e.volumeBits.Store(math.Float64bits(level))
	e.backend.SetListenerGain(level)
}

// Get returns the named sound, creating an unloaded entry if the loader
// never saw it. Playing an unloaded sound is a no-op until its buffer
// arrives.
func (e *Engine) Get(name string) *Sound {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sounds[name]
	if s == nil {
		s = &Sound{name: name}
		e.sounds[name] = s
	}
	return s
}

// Update begins a frame: stores the listener state and merges requests
// deferred from other goroutines into the live queue. Owner goroutine
// only; must run before Step.
func (e *Engine) Update(listenerPos, listenerVel vmath.Vec2F) {
	if !e.running.Load() {
		return
	}

	e.mu.Lock()
	e.listener = listenerPos
	e.listenerVel = listenerVel
	for s, entry := range e.deferred {
		if q, ok := e.queue[s]; ok {
			q.merge(entry)
		} else {
			e.queue[s] = entry
		}
	}
	clear(e.deferred)
	e.mu.Unlock()
}

// Play requests the sound at the listener position (full volume, no pan).
func (e *Engine) Play(s *Sound) {
	e.PlayAt(s, e.listener, e.listenerVel)
}

// PlayAt requests the sound at a world position this frame. Requests for
// the same sound coalesce into one spatialized instance. Owner goroutine
// only; other goroutines must use PlayDeferred.
func (e *Engine) PlayAt(s *Sound, pos, vel vmath.Vec2F) {
	if !e.playable(s) {
		return
	}
	entry, ok := e.queue[s]
	if !ok {
		entry = &queueEntry{}
		e.queue[s] = entry
	}
	entry.add(vmath.V2FSub(pos, e.listener), vmath.V2FSub(vel, e.listenerVel))
}

// PlayDeferred is the cross-goroutine request path: the contribution is
// parked in the deferred queue and folded into the live queue by the
// owner's next Update.
func (e *Engine) PlayDeferred(s *Sound, pos, vel vmath.Vec2F) {
	if !e.playable(s) {
		return
	}
	e.mu.Lock()
	entry, ok := e.deferred[s]
	if !ok {
		entry = &queueEntry{}
		e.deferred[s] = entry
	}
	entry.add(vmath.V2FSub(pos, e.listener), vmath.V2FSub(vel, e.listenerVel))
	e.mu.Unlock()
}

// playable gates requests: nil sound, unloaded buffer, zero volume and a
// stopped engine are all silent no-ops.
func (e *Engine) playable(s *Sound) bool {
	return e.running.Load() && s != nil && s.Buffer() != 0 && e.Volume() != 0
}

// Step ends a frame: advances active channels, reclaims finished ones,
// allocates channels for the remaining requests and clears the queue.
// Owner goroutine only.
func (e *Engine) Step() {
	if !e.running.Load() {
		return
	}
	e.pool.advance(e.queue)
	e.pool.allocate(e.queue)
	clear(e.queue)
}

// Stop shuts the engine down: frees every channel, joins the loader,
// releases all decoded buffers, then closes the device. Idempotent.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	e.pool.destroyAll()

	// The loader may still be touching the asset table; join it before
	// freeing buffers.
	if e.loaderQuit != nil {
		close(e.loaderQuit)
		<-e.loaderDone
	}

	e.mu.Lock()
	for _, s := range e.sounds {
		if buf := s.Buffer(); buf != 0 {
			e.backend.DestroyBuffer(buf)
		}
	}
	clear(e.sounds)
	e.loadQueue = nil
	e.mu.Unlock()

	e.backend.Close()
}

func clampVolume(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
