package audio

import (
	"github.com/lixenwraith/soundfield/vmath"
)

// Backend position units. Game units are scaled down so a source a few
// hundred units out still sits well inside the attenuation knee.
const positionScale = 0.001

// playingSource is one backend channel bound to a sound.
type playingSource struct {
	id    SourceID
	sound *Sound
}

// sourcePool owns the bounded set of backend channels. Channels are
// recycled when their sound finishes and destroyed only at shutdown.
// maxSources starts as a soft cap and is lowered permanently the first
// time the backend refuses an allocation.
type sourcePool struct {
	backend    Backend
	active     []playingSource
	recycled   []SourceID
	maxSources int
}

func newSourcePool(backend Backend, maxSources int) *sourcePool {
	return &sourcePool{
		backend:    backend,
		active:     make([]playingSource, 0, 16),
		maxSources: maxSources,
	}
}

// move pushes an entry's coalesced position and velocity to a channel.
func (p *sourcePool) move(id SourceID, pos, vel vmath.Vec2F) {
	p.backend.SetSourcePosition(id, vmath.V2FScale(pos, positionScale))
	p.backend.SetSourceVelocity(id, vmath.V2FScale(vel, positionScale))
}

// advance decides which active channels continue. A looping channel
// continues only while the queue holds a keep-alive entry for its sound;
// that entry is consumed here so allocate never restarts it. A one-shot
// channel continues while the backend still reports it playing.
// Everything else is stopped and recycled.
func (p *sourcePool) advance(queue map[*Sound]*queueEntry) {
	remaining := p.active[:0]
	for _, src := range p.active {
		if src.sound.Looping() {
			if entry, ok := queue[src.sound]; ok {
				p.move(src.id, entry.position(), entry.velocity())
				remaining = append(remaining, src)
				delete(queue, src.sound)
				continue
			}
			p.backend.StopSource(src.id)
		} else if p.backend.SourcePlaying(src.id) {
			remaining = append(remaining, src)
			continue
		}
		p.recycled = append(p.recycled, src.id)
	}
	p.active = remaining
}

// allocate binds a channel to every entry left in the queue: recycled
// channels first, then fresh ones while under the cap. A zero id from
// the backend permanently lowers the cap to the current active count and
// the rest of this frame's entries are dropped.
func (p *sourcePool) allocate(queue map[*Sound]*queueEntry) {
	for sound, entry := range queue {
		var id SourceID
		if n := len(p.recycled); n > 0 {
			id = p.recycled[n-1]
			p.recycled = p.recycled[:n-1]
		} else {
			if len(p.active) >= p.maxSources {
				break
			}
			id = p.backend.CreateSource()
			if id == 0 {
				p.maxSources = len(p.active)
				break
			}
		}
		p.backend.ConfigureSource(id, 1, 1, sound.Looping(), sound.Buffer())
		p.active = append(p.active, playingSource{id: id, sound: sound})
		p.move(id, entry.position(), entry.velocity())
		p.backend.PlaySource(id)
	}
}

// destroyAll stops and frees every channel, active and recycled.
// Shutdown only.
func (p *sourcePool) destroyAll() {
	for _, src := range p.active {
		p.backend.StopSource(src.id)
		p.backend.DestroySource(src.id)
	}
	p.active = p.active[:0]
	for _, id := range p.recycled {
		p.backend.DestroySource(id)
	}
	p.recycled = p.recycled[:0]
}
