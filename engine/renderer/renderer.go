package renderer

import (
	"fmt"
	"sync"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

type RendererType uint8

const (
	Headless RendererType = iota
)

/**
 * @brief The renderer front end. Tracks uploaded geometry by name so a
 * re-skinned mesh replaces its previous upload.
 */
type Renderer struct {
	backend RendererBackend
	debug   *DebugRenderer

	mu         sync.RWMutex
	geometries map[string]*metadata.Geometry
	frame      uint64
}

func New(backend RendererBackend, maxDebugLines int) *Renderer {
	return &Renderer{
		backend:    backend,
		debug:      NewDebugRenderer(maxDebugLines),
		geometries: make(map[string]*metadata.Geometry),
	}
}

func (r *Renderer) Initialize(appName string) error {
	return r.backend.Initialize(appName)
}

func (r *Renderer) Shutdown() error {
	r.mu.Lock()
	for name, g := range r.geometries {
		if err := r.backend.GeometryDestroy(g); err != nil {
			core.LogError("destroying geometry %s: %s", name, err)
		}
		delete(r.geometries, name)
	}
	r.mu.Unlock()
	return r.backend.Shutdown()
}

// Debug returns the debug line renderer drawn at the end of every frame.
func (r *Renderer) Debug() *DebugRenderer {
	return r.debug
}

func (r *Renderer) TextureCreate(texture *metadata.Texture) error {
	return r.backend.TextureCreate(texture)
}

func (r *Renderer) TextureDestroy(texture *metadata.Texture) error {
	return r.backend.TextureDestroy(texture)
}

/**
 * @brief Uploads geometry under config.Name, replacing any previous upload
 * with that name. The generation counts replacements.
 */
func (r *Renderer) UploadGeometry(config *metadata.GeometryConfig) (*metadata.Geometry, error) {
	if config == nil {
		return nil, fmt.Errorf("renderer: nil geometry config")
	}
	g, err := r.backend.GeometryUpload(config)
	if err != nil {
		return nil, fmt.Errorf("renderer: upload %s: %w", config.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.geometries[config.Name]; ok {
		g.Generation = old.Generation + 1
		if err := r.backend.GeometryDestroy(old); err != nil {
			core.LogWarn("destroying replaced geometry %s: %s", config.Name, err)
		}
	}
	r.geometries[config.Name] = g
	return g, nil
}

func (r *Renderer) DestroyGeometry(name string) error {
	r.mu.Lock()
	g, ok := r.geometries[name]
	delete(r.geometries, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.backend.GeometryDestroy(g)
}

// Geometry returns the current upload for name, or nil.
func (r *Renderer) Geometry(name string) *metadata.Geometry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.geometries[name]
}

func (r *Renderer) GeometryCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.geometries)
}

func (r *Renderer) DrawFrame(deltaTime float64) error {
	if err := r.backend.BeginFrame(deltaTime); err != nil {
		core.LogError(err.Error())
		return err
	}
	if lines := r.debug.Lines(); len(lines) > 0 {
		if err := r.backend.DrawLines(lines); err != nil {
			core.LogError("drawing debug lines: %s", err)
		}
	}
	if err := r.backend.EndFrame(deltaTime); err != nil {
		core.LogError("RendererEndFrame failed. Application shutting down...")
		return err
	}
	r.mu.Lock()
	r.frame++
	r.mu.Unlock()
	return nil
}

// FrameNumber returns the number of frames drawn.
func (r *Renderer) FrameNumber() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame
}
