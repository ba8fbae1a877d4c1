package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}

/**
 * @brief Flat, interleave-free vertex streams as uploaded to the GPU.
 * Positions, normals, tangents and bitangents hold 3 floats per vertex,
 * UVs hold 2.
 */
type TangentBasisStreams struct {
	Positions  []float32
	UVs        []float32
	Normals    []float32
	Tangents   []float32
	Bitangents []float32
}
