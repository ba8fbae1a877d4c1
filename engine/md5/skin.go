package md5

import (
	"github.com/KevinMFinch/Cos426-final/engine/math"
)

/**
 * @brief Computes the vertex positions of the mesh for the given skeleton
 * pose and copies the texture coordinates into the UV stream.
 *
 * Each vertex is the bias weighted sum of its weights' offsets transformed
 * into joint space. md5 is z-up, so the result is stored as (x, z, y).
 * Every weight range and joint index is checked before anything is written;
 * on error the streams are left as they were.
 *
 * @param skeleton The pose to skin against. Only read.
 * @return nil or a *SkinError.
 */
func (m *Mesh) BuildPositionsAndUVs(skeleton Skeleton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildPositionsAndUVs(skeleton)
}

func (m *Mesh) buildPositionsAndUVs(skeleton Skeleton) error {
	if err := m.validateWeights(skeleton); err != nil {
		return err
	}

	n := len(m.Vertices)
	m.Positions = math.ResizeFloats(m.Positions, n*3)
	m.UVs = math.ResizeFloats(m.UVs, n*2)

	for i, v := range m.Vertices {
		pos := math.NewVec3Zero()
		for _, w := range m.Weights[v.WeightStart : v.WeightStart+v.WeightCount] {
			joint := &skeleton[w.JointIndex]
			p := joint.Position.Add(joint.Orientation.RotateVec3(w.Offset))
			pos = pos.Add(p.MulScalar(w.Bias))
		}
		math.NewVec3(pos.X, pos.Z, pos.Y).Store(m.Positions, i)
		m.UVs[i*2+0] = v.UV.X
		m.UVs[i*2+1] = v.UV.Y
	}
	return nil
}

func (m *Mesh) validateWeights(skeleton Skeleton) error {
	for i, v := range m.Vertices {
		if v.WeightStart < 0 || v.WeightCount < 0 || v.WeightStart+v.WeightCount > len(m.Weights) {
			return &SkinError{Vertex: i, Weight: v.WeightStart, Joint: -1, Err: ErrWeightRangeOutOfRange}
		}
		for w := v.WeightStart; w < v.WeightStart+v.WeightCount; w++ {
			j := m.Weights[w].JointIndex
			if j < 0 || j >= len(skeleton) {
				return &SkinError{Vertex: i, Weight: w, Joint: j, Err: ErrJointIndexOutOfRange}
			}
		}
	}
	return nil
}

/**
 * @brief Runs BuildPositionsAndUVs then DeriveTangentBasis under a single
 * lock, so readers never see positions from one pose with normals from another.
 */
func (m *Mesh) Skin(skeleton Skeleton, opts TangentOptions) (TangentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.buildPositionsAndUVs(skeleton); err != nil {
		return TangentStats{}, err
	}
	return m.deriveTangentBasis(opts)
}
