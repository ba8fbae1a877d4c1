package math

// GeometryDeriveTangentBasis derives smooth per-vertex normals, tangents and
// bitangents for an indexed triangle list. The vertex count is taken from
// len(s.Positions)/3 and s.UVs must hold 2 floats per vertex. The output
// streams are resized when needed and always zeroed first, so calling this
// twice on the same input gives the same result.
//
// Face vectors are summed into every vertex of the triangle, then each vertex
// normal is normalized and the tangent and bitangent are projected onto the
// plane of that normal (t - (t.n)n) before being normalized themselves. The
// tangent and bitangent end up orthogonal to the normal but not necessarily
// to each other.
//
// The face normal is negated to match the (x, z, y) position swizzle used by
// the md5 skinning pass. Indices must be < vertex count; the caller checks.
//
// It returns the number of degenerate triangles: those whose normal, tangent
// or bitangent had a length below K_NORMALIZE_EPSILON. Their contribution is
// clamped rather than producing NaN.
func GeometryDeriveTangentBasis(s *TangentBasisStreams, indices []uint16) int {
	vertexCount := len(s.Positions) / 3
	s.Normals = ResizeFloats(s.Normals, vertexCount*3)
	s.Tangents = ResizeFloats(s.Tangents, vertexCount*3)
	s.Bitangents = ResizeFloats(s.Bitangents, vertexCount*3)

	degenerate := 0
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := int(indices[i+0])
		i1 := int(indices[i+1])
		i2 := int(indices[i+2])

		p0 := NewVec3FromSlice(s.Positions, i0)
		edge0 := NewVec3FromSlice(s.Positions, i1).Sub(p0)
		edge1 := NewVec3FromSlice(s.Positions, i2).Sub(p0)

		uv0 := Vec2{s.UVs[i0*2+0], s.UVs[i0*2+1]}
		duv0 := Vec2{s.UVs[i1*2+0], s.UVs[i1*2+1]}.Sub(uv0)
		duv1 := Vec2{s.UVs[i2*2+0], s.UVs[i2*2+1]}.Sub(uv0)

		area := duv0.X*duv1.Y - duv0.Y*duv1.X
		areaSign := Sign(area)

		normal, nl := edge1.Cross(edge0).Normalized()
		normal = normal.Negate()

		tangent, tl := edge0.MulScalar(duv1.Y).Sub(edge1.MulScalar(duv0.Y)).Normalized()
		bitangent, bl := edge1.MulScalar(duv0.X).Sub(edge0.MulScalar(duv1.X)).Normalized()

		// Mirrored (or collapsed) UV islands flip the tangent frame.
		if areaSign != 1 {
			tangent = tangent.Negate()
			bitangent = bitangent.Negate()
		}

		if nl < K_NORMALIZE_EPSILON || tl < K_NORMALIZE_EPSILON || bl < K_NORMALIZE_EPSILON {
			degenerate++
		}

		for _, v := range [3]int{i0, i1, i2} {
			normal.AddTo(s.Normals, v)
			tangent.AddTo(s.Tangents, v)
			bitangent.AddTo(s.Bitangents, v)
		}
	}

	for v := 0; v < vertexCount; v++ {
		n, _ := NewVec3FromSlice(s.Normals, v).Normalized()
		t, _ := NewVec3FromSlice(s.Tangents, v).Reject(n).Normalized()
		b, _ := NewVec3FromSlice(s.Bitangents, v).Reject(n).Normalized()

		n.Store(s.Normals, v)
		t.Store(s.Tangents, v)
		b.Store(s.Bitangents, v)
	}

	return degenerate
}

// GeometryExtents returns the bounds and center of a flat xyz position stream.
func GeometryExtents(positions []float32) (Extents3D, Vec3) {
	if len(positions) < 3 {
		return Extents3D{}, NewVec3Zero()
	}
	ext := Extents3D{
		Min: NewVec3FromSlice(positions, 0),
		Max: NewVec3FromSlice(positions, 0),
	}
	for v := 1; v < len(positions)/3; v++ {
		p := NewVec3FromSlice(positions, v)
		ext.Min = ext.Min.Min(p)
		ext.Max = ext.Max.Max(p)
	}
	center := ext.Min.Add(ext.Max).MulScalar(0.5)
	return ext, center
}

// ResizeFloats returns a zeroed slice of length n, reusing s when it already fits.
func ResizeFloats(s []float32, n int) []float32 {
	if len(s) != n {
		return make([]float32, n)
	}
	clear(s)
	return s
}
