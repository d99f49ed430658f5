package audio

import (
	"github.com/lixenwraith/soundfield/vmath"
)

// Backend abstracts the playback device. The default implementation sits
// on gopxl/beep; tests inject a deterministic stub. Capacity is
// discovered reactively: CreateSource returns zero when the device is
// out of channels, and the pool lowers its cap in response.
//
// All methods are called from the engine's owner goroutine only, except
// LoadBuffer which the background loader calls; implementations must
// make buffer creation safe against concurrent source operations.
type Backend interface {
	// Lifecycle
	Open() error
	Close()

	// Listener
	SetListenerGain(gain float64)

	// Sources
	CreateSource() SourceID
	ConfigureSource(id SourceID, pitch, gain float64, looping bool, buffer BufferID)
	SetSourcePosition(id SourceID, pos vmath.Vec2F)
	SetSourceVelocity(id SourceID, vel vmath.Vec2F)
	PlaySource(id SourceID)
	StopSource(id SourceID)
	SourcePlaying(id SourceID) bool
	DestroySource(id SourceID)

	// Buffers
	LoadBuffer(path string) (BufferID, error)
	DestroyBuffer(id BufferID)
}
