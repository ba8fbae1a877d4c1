package md5

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/math"
)

// DegeneratePolicy decides what happens when a mesh has triangles with no
// usable normal, tangent or bitangent.
type DegeneratePolicy int

const (
	// DegenerateClamp keeps the clamped (finite) result and logs a warning.
	DegenerateClamp DegeneratePolicy = iota
	// DegenerateStrict drops the derived streams and fails the mesh.
	DegenerateStrict
)

func (p DegeneratePolicy) String() string {
	switch p {
	case DegenerateClamp:
		return "clamp"
	case DegenerateStrict:
		return "strict"
	}
	return fmt.Sprintf("DegeneratePolicy(%d)", int(p))
}

// ParseDegeneratePolicy reads "clamp" or "strict". The empty string means clamp.
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return DegenerateClamp, nil
	case "strict":
		return DegenerateStrict, nil
	}
	return DegenerateClamp, fmt.Errorf("unknown degenerate policy %q", s)
}

type TangentOptions struct {
	Policy DegeneratePolicy
}

type TangentStats struct {
	Triangles  int
	Degenerate int
	// Unreferenced counts vertices no triangle uses. They keep a zero basis.
	Unreferenced int
}

/**
 * @brief Derives per-vertex normals, tangents and bitangents from the
 * positions and UVs built by BuildPositionsAndUVs, and fills Colours with
 * opaque white. Calling it again without re-skinning gives the same result.
 *
 * @param opts Controls the handling of degenerate triangles and of vertices
 * no triangle references.
 * @return Triangle counts, and ErrMissingSkinData, ErrIndexOutOfRange or
 * ErrDegenerateGeometry (strict policy only).
 */
func (m *Mesh) DeriveTangentBasis(opts TangentOptions) (TangentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deriveTangentBasis(opts)
}

func (m *Mesh) deriveTangentBasis(opts TangentOptions) (TangentStats, error) {
	n := len(m.Vertices)
	if len(m.Positions) != n*3 || len(m.UVs) != n*2 {
		return TangentStats{}, ErrMissingSkinData
	}
	referenced := bitset.New(uint(n))
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return TangentStats{}, fmt.Errorf("%w: index %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, n)
		}
		referenced.Set(uint(idx))
	}

	streams := math.TangentBasisStreams{
		Positions:  m.Positions,
		UVs:        m.UVs,
		Normals:    m.Normals,
		Tangents:   m.Tangents,
		Bitangents: m.Bitangents,
	}
	stats := TangentStats{
		Triangles:  len(m.Indices) / 3,
		Degenerate: math.GeometryDeriveTangentBasis(&streams, m.Indices),
	}
	stats.Unreferenced = n - int(referenced.Count())
	m.Normals = streams.Normals
	m.Tangents = streams.Tangents
	m.Bitangents = streams.Bitangents

	if stats.Degenerate > 0 || stats.Unreferenced > 0 {
		if opts.Policy == DegenerateStrict {
			m.Normals = nil
			m.Tangents = nil
			m.Bitangents = nil
			m.Colours = nil
			return stats, fmt.Errorf("%w: %d of %d triangles, %d of %d vertices unreferenced",
				ErrDegenerateGeometry, stats.Degenerate, stats.Triangles, stats.Unreferenced, n)
		}
		if stats.Degenerate > 0 {
			core.LogWarn("mesh %q: %d of %d triangles are degenerate, their basis vectors were clamped",
				m.Material.BaseTextureName, stats.Degenerate, stats.Triangles)
		}
		if stats.Unreferenced > 0 {
			core.LogWarn("mesh %q: %d of %d vertices belong to no triangle and have a zero basis",
				m.Material.BaseTextureName, stats.Unreferenced, n)
		}
	}

	m.Colours = math.ResizeFloats(m.Colours, n*4)
	for i := range m.Colours {
		m.Colours[i] = 1.0
	}
	return stats, nil
}
