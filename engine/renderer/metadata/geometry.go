package metadata

import (
	"github.com/KevinMFinch/Cos426-final/engine/math"
)

/**
 * @brief Represents the configuration for a geometry upload. All vertex
 * streams are flat: 3 floats per vertex for positions, normals, tangents and
 * bitangents, 2 for UVs and 4 for colours.
 */
type GeometryConfig struct {
	Positions  []float32
	UVs        []float32
	Normals    []float32
	Tangents   []float32
	Bitangents []float32
	Colours    []float32
	/** @brief Triangle list, 3 indices per triangle. */
	Indices []uint16

	Center  math.Vec3
	Extents math.Extents3D

	/** @brief The Name of the geometry. */
	Name string
	/** @brief The name of the material used by the geometry. */
	MaterialName string
}

/** @brief VertexCount returns the number of vertices described by the position stream. */
func (gc *GeometryConfig) VertexCount() int {
	return len(gc.Positions) / 3
}

/**
 * @brief Represents geometry that has been handed to a backend.
 */
type Geometry struct {
	/** @brief The internal geometry identifier, used by the renderer backend to map to internal resources. */
	InternalID uint32
	/** @brief The geometry generation. Incremented every time the geometry changes. */
	Generation uint16
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
	/** @brief The geometry name. */
	Name        string
	VertexCount int
	IndexCount  int
}
