package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// HeadlessGeometry is the system-memory copy a HeadlessBackend keeps per upload.
type HeadlessGeometry struct {
	Geometry *metadata.Geometry
	Config   metadata.GeometryConfig
}

/**
 * @brief A backend without a GPU. It validates and copies every upload so
 * tools and tests can inspect exactly what a real backend would receive.
 */
type HeadlessBackend struct {
	mu         sync.Mutex
	appName    string
	nextID     uint32
	geometries map[uint32]*HeadlessGeometry
	textures   map[string]*metadata.Texture
	inFrame    bool
	lastLines  int
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{
		geometries: make(map[uint32]*HeadlessGeometry),
		textures:   make(map[string]*metadata.Texture),
	}
}

func (hb *HeadlessBackend) Initialize(appName string) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.appName = appName
	core.LogInfo("headless renderer initialized for %s", appName)
	return nil
}

func (hb *HeadlessBackend) Shutdown() error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	clear(hb.geometries)
	clear(hb.textures)
	return nil
}

func (hb *HeadlessBackend) BeginFrame(deltaTime float64) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if hb.inFrame {
		return errors.New("headless: BeginFrame called twice")
	}
	hb.inFrame = true
	return nil
}

func (hb *HeadlessBackend) EndFrame(deltaTime float64) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if !hb.inFrame {
		return errors.New("headless: EndFrame without BeginFrame")
	}
	hb.inFrame = false
	return nil
}

func (hb *HeadlessBackend) TextureCreate(texture *metadata.Texture) error {
	if texture == nil || texture.Image == nil {
		return errors.New("headless: texture has no pixels")
	}
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.textures[texture.Name] = texture
	return nil
}

func (hb *HeadlessBackend) TextureDestroy(texture *metadata.Texture) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	delete(hb.textures, texture.Name)
	return nil
}

func (hb *HeadlessBackend) GeometryUpload(config *metadata.GeometryConfig) (*metadata.Geometry, error) {
	if err := validateGeometry(config); err != nil {
		return nil, err
	}

	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.nextID++
	g := &metadata.Geometry{
		InternalID:  hb.nextID,
		Center:      config.Center,
		Extents:     config.Extents,
		Name:        config.Name,
		VertexCount: config.VertexCount(),
		IndexCount:  len(config.Indices),
	}
	copied := *config
	copied.Positions = append([]float32(nil), config.Positions...)
	copied.UVs = append([]float32(nil), config.UVs...)
	copied.Normals = append([]float32(nil), config.Normals...)
	copied.Tangents = append([]float32(nil), config.Tangents...)
	copied.Bitangents = append([]float32(nil), config.Bitangents...)
	copied.Colours = append([]float32(nil), config.Colours...)
	copied.Indices = append([]uint16(nil), config.Indices...)
	hb.geometries[g.InternalID] = &HeadlessGeometry{Geometry: g, Config: copied}
	return g, nil
}

func (hb *HeadlessBackend) GeometryDestroy(geometry *metadata.Geometry) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if _, ok := hb.geometries[geometry.InternalID]; !ok {
		return fmt.Errorf("headless: unknown geometry id %d", geometry.InternalID)
	}
	delete(hb.geometries, geometry.InternalID)
	return nil
}

func (hb *HeadlessBackend) DrawLines(lines []DebugLine) error {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if !hb.inFrame {
		return errors.New("headless: DrawLines outside a frame")
	}
	hb.lastLines = len(lines)
	return nil
}

// Uploaded returns the stored copy for a geometry id, or nil.
func (hb *HeadlessBackend) Uploaded(id uint32) *HeadlessGeometry {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.geometries[id]
}

func (hb *HeadlessBackend) GeometryCount() int {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return len(hb.geometries)
}

// LinesDrawn returns the number of debug lines in the last frame.
func (hb *HeadlessBackend) LinesDrawn() int {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.lastLines
}

func validateGeometry(c *metadata.GeometryConfig) error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidGeometry)
	}
	n := c.VertexCount()
	if n == 0 || len(c.Positions)%3 != 0 {
		return fmt.Errorf("%w: %s: %d position floats", ErrInvalidGeometry, c.Name, len(c.Positions))
	}
	for _, s := range [...]struct {
		name  string
		have  int
		width int
	}{
		{"uvs", len(c.UVs), 2},
		{"normals", len(c.Normals), 3},
		{"tangents", len(c.Tangents), 3},
		{"bitangents", len(c.Bitangents), 3},
		{"colours", len(c.Colours), 4},
	} {
		if s.have != n*s.width {
			return fmt.Errorf("%w: %s: %d %s floats, want %d", ErrInvalidGeometry, c.Name, s.have, s.name, n*s.width)
		}
	}
	if len(c.Indices) == 0 || len(c.Indices)%3 != 0 {
		return fmt.Errorf("%w: %s: %d indices", ErrInvalidGeometry, c.Name, len(c.Indices))
	}
	for i, idx := range c.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: %s: index %d is %d, have %d vertices", ErrInvalidGeometry, c.Name, i, idx, n)
		}
	}
	return nil
}
