package audio

import (
	"math"

	"github.com/lixenwraith/soundfield/vmath"
)

// queueEntry coalesces every pending play request for one sound in the
// current frame into a single spatialized instance. Contributions are
// weighted by inverse-square distance so near sources dominate.
type queueEntry struct {
	sum    vmath.Vec2F
	speed  float64
	weight float64
}

// add folds one listener-relative contribution into the entry.
// Weight floor: anything within unit distance counts as weight 1, which
// keeps a source on top of the listener from blowing up the average.
// Speed uses w^1.5 on the radial velocity component so distant sources
// barely affect the Doppler cue.
func (e *queueEntry) add(position, velocity vmath.Vec2F) {
	w := 1.0 / math.Max(1.0, vmath.V2FDot(position, position))
	e.sum = vmath.V2FAdd(e.sum, vmath.V2FScale(position, w))
	e.speed += w * math.Sqrt(w) * vmath.V2FDot(position, velocity)
	e.weight += w
}

// merge folds another entry in. Used when deferred requests join the
// live queue: entries are summed, never replaced.
func (e *queueEntry) merge(other *queueEntry) {
	e.sum = vmath.V2FAdd(e.sum, other.sum)
	e.speed += other.speed
	e.weight += other.weight
}

// position returns the weighted-average position, or the raw sum when
// no weight has accumulated.
func (e *queueEntry) position() vmath.Vec2F {
	if e.weight != 0 {
		return vmath.V2FScale(e.sum, 1.0/e.weight)
	}
	return e.sum
}

// velocity points along the resolved position with the accumulated
// radial speed as magnitude. A zero-length position yields zero velocity.
func (e *queueEntry) velocity() vmath.Vec2F {
	pos := e.position()
	length := vmath.V2FMag(pos)
	if length == 0 {
		return pos
	}
	return vmath.V2FScale(pos, e.speed/length)
}
