package renderer

import (
	"sync"

	"github.com/KevinMFinch/Cos426-final/engine/containers"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/math"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

/** @brief Default capacity of the debug line buffer. */
const MAX_DEBUG_LINES int = 65536

type DebugLine struct {
	From   math.Vec3
	To     math.Vec3
	Colour math.Vec4
}

/**
 * @brief Collects debug lines for the next frames. The buffer is bounded:
 * once full, the oldest lines are dropped.
 */
type DebugRenderer struct {
	mu     sync.Mutex
	lines  *containers.RingQueue[DebugLine]
	warned bool
}

func NewDebugRenderer(maxLines int) *DebugRenderer {
	if maxLines <= 0 {
		maxLines = MAX_DEBUG_LINES
	}
	return &DebugRenderer{lines: containers.NewRingQueue[DebugLine](maxLines)}
}

func (dr *DebugRenderer) AddDebugLine(line DebugLine) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	dr.push(line)
}

func (dr *DebugRenderer) push(line DebugLine) {
	if dr.lines.Push(line) && !dr.warned {
		dr.warned = true
		core.LogWarn("debug line buffer full (%d lines), dropping the oldest", dr.lines.Cap())
	}
}

/**
 * @brief Adds the normal, tangent and bitangent lines of every drawable mesh
 * of the model.
 *
 * @return The number of lines added.
 */
func (dr *DebugRenderer) AddTangentBasis(model *md5.Model, scale float32) int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	added := 0
	for _, mesh := range model.Meshes {
		for _, l := range mesh.TangentBasisLines(scale) {
			dr.push(DebugLine{From: l.From, To: l.To, Colour: l.Colour})
			added++
		}
	}
	return added
}

// Lines returns a copy of the buffered lines, oldest first.
func (dr *DebugRenderer) Lines() []DebugLine {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	out := make([]DebugLine, 0, dr.lines.Len())
	dr.lines.Each(func(l DebugLine) { out = append(out, l) })
	return out
}

func (dr *DebugRenderer) Clear() {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	dr.lines.Clear()
	dr.warned = false
}
