package md5

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"

	"github.com/KevinMFinch/Cos426-final/engine/math"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

/** @brief The md5mesh version Doom 3 shipped with. */
const MD5_VERSION int = 10

/** @brief Name given to models loaded without WithModelName. */
const DEFAULT_MODEL_NAME string = "unnamed"

// Upper bounds on the counts a file may declare. Indices are uint16, so a
// mesh cannot address more than MD5_MAX_VERTICES vertices.
const (
	MD5_MAX_JOINTS    int = 1 << 16
	MD5_MAX_MESHES    int = 1 << 16
	MD5_MAX_VERTICES  int = 1 << 16
	MD5_MAX_TRIANGLES int = 1 << 20
	MD5_MAX_WEIGHTS   int = 1 << 22
)

/**
 * @brief A bone of the bind pose. ParentIndex is -1 for roots.
 */
type Joint struct {
	Name        string
	ParentIndex int
	Position    math.Vec3
	Orientation math.Quaternion
}

/** @brief An ordered joint list. Weights refer to joints by index. */
type Skeleton []Joint

/**
 * @brief A mesh vertex: texture coordinates plus the contiguous range of
 * weights that position it.
 */
type Vertex struct {
	UV          math.Vec2
	WeightStart int
	WeightCount int
}

/**
 * @brief Places a vertex relative to one joint. Offset is in joint space.
 */
type Weight struct {
	JointIndex int
	Bias       float32
	Offset     math.Vec3
}

/**
 * @brief Material of an md5 mesh. The maps are resolved from BaseTextureName
 * by the texture system after parsing.
 */
type Material struct {
	BaseTextureName string
	DiffuseMap      *metadata.Texture
	NormalMap       *metadata.Texture
	SpecularMap     *metadata.Texture
}

// RecordKind names the per-mesh record arrays the parser fills.
type RecordKind int

const (
	RecordVertex RecordKind = iota
	RecordWeight
	RecordTriangle
	recordKindCount
)

func (k RecordKind) String() string {
	switch k {
	case RecordVertex:
		return "vertices"
	case RecordWeight:
		return "weights"
	case RecordTriangle:
		return "triangles"
	}
	return fmt.Sprintf("RecordKind(%d)", int(k))
}

/**
 * @brief A skinned mesh. The parsed records (Vertices, Weights, Indices) are
 * read-only after parsing; the flat streams are overwritten in place by every
 * skinning pass. Streams hold 3 floats per vertex, except UVs (2) and
 * Colours (4).
 */
type Mesh struct {
	Material Material

	Vertices []Vertex
	Weights  []Weight
	/** @brief Triangle list, 3 indices per triangle. */
	Indices []uint16

	Positions  []float32
	UVs        []float32
	Normals    []float32
	Tangents   []float32
	Bitangents []float32
	Colours    []float32

	written [recordKindCount]*bitset.BitSet
	mu      sync.Mutex
}

// NewMesh builds a fully populated mesh from records that did not come from the parser.
func NewMesh(material Material, vertices []Vertex, weights []Weight, indices []uint16) *Mesh {
	m := &Mesh{
		Material: material,
		Vertices: vertices,
		Weights:  weights,
		Indices:  indices,
	}
	for k := RecordKind(0); k < recordKindCount; k++ {
		n := m.slots(k)
		m.written[k] = bitset.New(uint(n))
		for i := 0; i < n; i++ {
			m.written[k].Set(uint(i))
		}
	}
	return m
}

func (m *Mesh) allocVertices(n int) {
	m.Vertices = make([]Vertex, n)
	m.written[RecordVertex] = bitset.New(uint(n))
}

func (m *Mesh) allocWeights(n int) {
	m.Weights = make([]Weight, n)
	m.written[RecordWeight] = bitset.New(uint(n))
}

func (m *Mesh) allocTriangles(n int) {
	m.Indices = make([]uint16, n*3)
	m.written[RecordTriangle] = bitset.New(uint(n))
}

func (m *Mesh) markWritten(kind RecordKind, i int) {
	if m.written[kind] == nil {
		m.written[kind] = bitset.New(uint(m.slots(kind)))
	}
	m.written[kind].Set(uint(i))
}

func (m *Mesh) slots(kind RecordKind) int {
	switch kind {
	case RecordVertex:
		return len(m.Vertices)
	case RecordWeight:
		return len(m.Weights)
	case RecordTriangle:
		return len(m.Indices) / 3
	}
	return 0
}

// Missing returns how many slots of the given kind were allocated but never written.
func (m *Mesh) Missing(kind RecordKind) int {
	slots := m.slots(kind)
	w := m.written[kind]
	if w == nil {
		return slots
	}
	return slots - int(w.Count())
}

// Complete reports whether every allocated record slot was written.
func (m *Mesh) Complete() bool {
	for k := RecordKind(0); k < recordKindCount; k++ {
		if m.Missing(k) > 0 {
			return false
		}
	}
	return true
}

// VertexCount returns the number of parsed vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles in the index list.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

/**
 * @brief Reports whether the mesh has every stream a renderer needs, with
 * lengths consistent with the vertex count.
 */
func (m *Mesh) IsValidForDraw() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validForDraw()
}

func (m *Mesh) validForDraw() bool {
	n := len(m.Vertices)
	if n == 0 || len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return false
	}
	return len(m.Positions) == 3*n &&
		len(m.UVs) == 2*n &&
		len(m.Normals) == 3*n &&
		len(m.Tangents) == 3*n &&
		len(m.Bitangents) == 3*n &&
		len(m.Colours) == 4*n
}

/**
 * @brief Packages the derived streams for a backend upload. The returned
 * config aliases the mesh buffers, so backends must copy what they keep.
 *
 * @param name The geometry name.
 * @return The geometry config, or nil if the mesh is not valid for drawing.
 */
func (m *Mesh) GeometryConfig(name string) *metadata.GeometryConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validForDraw() {
		return nil
	}
	extents, center := math.GeometryExtents(m.Positions)
	return &metadata.GeometryConfig{
		Positions:    m.Positions,
		UVs:          m.UVs,
		Normals:      m.Normals,
		Tangents:     m.Tangents,
		Bitangents:   m.Bitangents,
		Colours:      m.Colours,
		Indices:      m.Indices,
		Center:       center,
		Extents:      extents,
		Name:         name,
		MaterialName: m.Material.BaseTextureName,
	}
}

/**
 * @brief A model loaded from one .md5mesh file: its meshes and bind skeleton.
 */
type Model struct {
	ID       uuid.UUID
	Name     string
	Meshes   []*Mesh
	Skeleton Skeleton
	/** @brief Recoverable problems found while parsing, in source order. */
	Warnings []error
}

/**
 * @brief Skins every mesh against skeleton and derives its tangent basis.
 * A nil skeleton means the bind skeleton. The result has one slot per mesh;
 * a failing mesh does not stop the others.
 */
func (m *Model) Skin(skeleton Skeleton, opts TangentOptions) []error {
	if skeleton == nil {
		skeleton = m.Skeleton
	}
	errs := make([]error, len(m.Meshes))
	for i, mesh := range m.Meshes {
		if _, err := mesh.Skin(skeleton, opts); err != nil {
			errs[i] = fmt.Errorf("%s mesh %d: %w", m.Name, i, err)
		}
	}
	return errs
}

// GeometryName returns the name a mesh is uploaded under.
func (m *Model) GeometryName(mesh int) string {
	return fmt.Sprintf("%s#%d", m.Name, mesh)
}
