package audio

import (
	"errors"
	"sync/atomic"
)

// SourceID identifies one backend playback channel. Zero is invalid and
// doubles as the backend's "out of channels" answer.
type SourceID uint32

// BufferID identifies a decoded sample buffer owned by the backend.
// Zero means not loaded yet.
type BufferID uint32

// Sound is one named asset. Created lazily by Get or by the background
// loader; the buffer is populated at most once. Identity is stable for
// the process lifetime.
type Sound struct {
	name    string
	buffer  atomic.Uint32
	looping atomic.Bool
}

// Name returns the asset name (path relative to the sound root, without
// extension or the trailing loop marker).
func (s *Sound) Name() string {
	return s.name
}

// Buffer returns the decoded buffer handle, or zero if not loaded yet.
func (s *Sound) Buffer() BufferID {
	return BufferID(s.buffer.Load())
}

// Looping reports whether the asset carries the loop marker.
func (s *Sound) Looping() bool {
	return s.looping.Load()
}

// setLoaded publishes the decoded buffer. Called once by the loader.
// Looping is stored first so a reader that sees the buffer also sees
// the correct loop flag.
func (s *Sound) setLoaded(buf BufferID, looping bool) {
	s.looping.Store(looping)
	s.buffer.Store(uint32(buf))
}

// Sentinel errors
var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrAlreadyRunning    = errors.New("audio engine already running")
	ErrDecodeFailed      = errors.New("sound decode failed")
)
