package md5

import "github.com/KevinMFinch/Cos426-final/engine/math"

var (
	NormalLineColour    = math.NewVec4Create(0, 0, 1, 1)
	TangentLineColour   = math.NewVec4Create(0, 1, 0, 1)
	BitangentLineColour = math.NewVec4Create(1, 0, 0, 1)
)

// BasisLine is one segment of the tangent basis visualization.
type BasisLine struct {
	From   math.Vec3
	To     math.Vec3
	Colour math.Vec4
}

/**
 * @brief Builds three lines per vertex, from the vertex position along the
 * normal (blue), tangent (green) and bitangent (red), each scale units long.
 * Zero basis vectors get no line.
 *
 * @return The lines, or nil if the basis has not been derived.
 */
func (m *Mesh) TangentBasisLines(scale float32) []BasisLine {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.Positions) / 3
	if n == 0 || len(m.Normals) != n*3 || len(m.Tangents) != n*3 || len(m.Bitangents) != n*3 {
		return nil
	}

	lines := make([]BasisLine, 0, n*3)
	for v := 0; v < n; v++ {
		p := math.NewVec3FromSlice(m.Positions, v)
		for _, b := range [...]struct {
			stream []float32
			colour math.Vec4
		}{
			{m.Normals, NormalLineColour},
			{m.Tangents, TangentLineColour},
			{m.Bitangents, BitangentLineColour},
		} {
			d := math.NewVec3FromSlice(b.stream, v)
			// Vertices no triangle references have no basis to show.
			if d.Compare(math.NewVec3Zero(), math.K_FLOAT_EPSILON) {
				continue
			}
			lines = append(lines, BasisLine{p, p.Add(d.MulScalar(scale)), b.colour})
		}
	}
	return lines
}
