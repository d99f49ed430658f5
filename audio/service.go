package audio

import (
	"sync/atomic"

	"github.com/lixenwraith/soundfield/vmath"
)

// Service wraps Engine for hosts that prefer silent degradation over a
// startup error: if no device is available the service disables itself
// and every Player call becomes a no-op.
type Service struct {
	engine   *Engine
	disabled atomic.Bool
}

// NewService creates an unstarted audio service.
func NewService() *Service {
	return &Service{}
}

// Init builds and starts the engine; sets the disabled flag on device
// failure instead of returning an error.
func (s *Service) Init(cfg *Config) error {
	engine := New(nil, cfg)
	if err := engine.Start(); err != nil {
		s.disabled.Store(true)
		return nil
	}
	s.engine = engine
	return nil
}

// Stop shuts the engine down if it is running.
func (s *Service) Stop() error {
	if s.engine != nil && s.engine.Running() {
		s.engine.Stop()
	}
	return nil
}

// IsDisabled returns true if audio is unavailable.
func (s *Service) IsDisabled() bool {
	return s.disabled.Load()
}

// Engine returns the underlying engine (nil when disabled).
func (s *Service) Engine() *Engine {
	if s.disabled.Load() {
		return nil
	}
	return s.engine
}

// Player returns the scheduling interface for game systems, or nil when
// audio is disabled.
func (s *Service) Player() Player {
	if s.disabled.Load() || s.engine == nil {
		return nil
	}
	return s.engine
}

// Player is the minimal per-frame interface game systems use.
type Player interface {
	Get(name string) *Sound
	Update(listenerPos, listenerVel vmath.Vec2F)
	Play(s *Sound)
	PlayAt(s *Sound, pos, vel vmath.Vec2F)
	PlayDeferred(s *Sound, pos, vel vmath.Vec2F)
	Step()
	Progress() float64
	Volume() float64
	SetVolume(level float64)
}
