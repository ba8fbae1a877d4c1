package renderer

import "github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"

/**
 * @brief The interface a graphics API backend implements. Buffers passed in
 * belong to the caller; a backend copies what it needs to keep.
 */
type RendererBackend interface {
	Initialize(appName string) error
	Shutdown() error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	TextureCreate(texture *metadata.Texture) error
	TextureDestroy(texture *metadata.Texture) error
	GeometryUpload(config *metadata.GeometryConfig) (*metadata.Geometry, error)
	GeometryDestroy(geometry *metadata.Geometry) error
	DrawLines(lines []DebugLine) error
}
