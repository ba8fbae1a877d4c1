package systems

import (
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"
	"sync"

	"github.com/KevinMFinch/Cos426-final/engine/assets"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
	"github.com/KevinMFinch/Cos426-final/engine/renderer"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

/** @brief Extension appended to material names that have none. Doom 3 shipped TGAs. */
const DEFAULT_TEXTURE_EXTENSION string = ".tga"

// TextureFinder resolves a texture by asset name. It never returns nil:
// unknown names resolve to the default texture for the use.
type TextureFinder interface {
	Find(name string, use metadata.TextureUse) *metadata.Texture
}

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

type TextureSystem struct {
	Config *TextureSystemConfig

	mutex      sync.RWMutex
	registered map[string]*metadata.Texture
	defaults   map[metadata.TextureUse]*metadata.Texture
	// sub systems
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
}

func NewTextureSystem(config *TextureSystemConfig, am *assets.AssetManager, r *renderer.Renderer) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	return &TextureSystem{
		Config:       config,
		registered:   make(map[string]*metadata.Texture),
		defaults:     createDefaultTextures(),
		assetManager: am,
		renderer:     r,
	}, nil
}

func (ts *TextureSystem) Initialize() error {
	for _, t := range ts.defaults {
		if err := ts.renderer.TextureCreate(t); err != nil {
			return err
		}
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	for name, t := range ts.registered {
		if err := ts.renderer.TextureDestroy(t); err != nil {
			return err
		}
		delete(ts.registered, name)
	}
	for _, t := range ts.defaults {
		if err := ts.renderer.TextureDestroy(t); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the generated texture used when a lookup for use fails.
func (ts *TextureSystem) Default(use metadata.TextureUse) *metadata.Texture {
	if t, ok := ts.defaults[use]; ok {
		return t
	}
	return ts.defaults[metadata.TextureUseUnknown]
}

/**
 * @brief Returns the texture registered under name, loading it through the
 * asset manager on first use. Missing or undecodable files fall back to the
 * default texture for use, with a warning.
 */
func (ts *TextureSystem) Find(name string, use metadata.TextureUse) *metadata.Texture {
	if name == "" {
		return ts.Default(use)
	}
	name = assets.NormalizeName(name)

	ts.mutex.RLock()
	t, ok := ts.registered[name]
	ts.mutex.RUnlock()
	if ok {
		return t
	}

	if !ts.assetManager.Exists(name) {
		core.LogWarn("texture %s (%s) not found, using default", name, use)
		return ts.Default(use)
	}
	res, err := ts.assetManager.LoadAsset(name, metadata.ResourceTypeImage, nil)
	if err != nil {
		core.LogWarn("texture %s (%s) failed to load, using default: %s", name, use, err)
		return ts.Default(use)
	}
	t = res.Data.(*metadata.Texture)
	t.Name = name

	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if existing, ok := ts.registered[name]; ok {
		return existing
	}
	if uint32(len(ts.registered)) >= ts.Config.MaxTextureCount {
		core.LogWarn("texture system full (%d textures), using default for %s", ts.Config.MaxTextureCount, name)
		return ts.Default(use)
	}
	if err := ts.renderer.TextureCreate(t); err != nil {
		core.LogWarn("texture %s could not be created, using default: %s", name, err)
		return ts.Default(use)
	}
	ts.registered[name] = t
	return t
}

// Invalidate drops a registered texture so the next Find reloads it.
func (ts *TextureSystem) Invalidate(name string) bool {
	name = assets.NormalizeName(name)
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	t, ok := ts.registered[name]
	if !ok {
		return false
	}
	delete(ts.registered, name)
	if err := ts.renderer.TextureDestroy(t); err != nil {
		core.LogWarn("destroying texture %s: %s", name, err)
	}
	return true
}

// Count returns the number of textures loaded from assets.
func (ts *TextureSystem) Count() int {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	return len(ts.registered)
}

/**
 * @brief Derives the diffuse, normal and specular texture names of a
 * material. The normal map adds "_local" and the specular map "_s" before
 * the extension, which defaults to .tga when base has none. An empty base
 * gives empty names.
 */
func MaterialTextureNames(base, prefix string) (diffuse, normal, specular string) {
	if base == "" {
		return "", "", ""
	}
	name := prefix + base
	ext := path.Ext(base)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = DEFAULT_TEXTURE_EXTENSION
	}
	return stem + ext, stem + "_local" + ext, stem + "_s" + ext
}

// ResolveMaterial fills the texture maps of m from its base texture name.
func ResolveMaterial(finder TextureFinder, m *md5.Material, prefix string) {
	diffuse, normal, specular := MaterialTextureNames(m.BaseTextureName, prefix)
	m.DiffuseMap = finder.Find(diffuse, metadata.TextureUseMapDiffuse)
	m.NormalMap = finder.Find(normal, metadata.TextureUseMapNormal)
	m.SpecularMap = finder.Find(specular, metadata.TextureUseMapSpecular)
}

func createDefaultTextures() map[metadata.TextureUse]*metadata.Texture {
	// A 256x256 blue/white checkerboard pattern, so a missing texture is obvious.
	const texDimension = 256
	checker := image.NewNRGBA(image.Rect(0, 0, texDimension, texDimension))
	for row := 0; row < texDimension; row++ {
		for col := 0; col < texDimension; col++ {
			c := color.NRGBA{255, 255, 255, 255}
			if (row%2 == 0) == (col%2 == 0) {
				c = color.NRGBA{0, 0, 255, 255}
			}
			checker.SetNRGBA(col, row, c)
		}
	}

	return map[metadata.TextureUse]*metadata.Texture{
		metadata.TextureUseUnknown: defaultTexture(metadata.DEFAULT_TEXTURE_NAME, checker),
		// Default diffuse map is all white.
		metadata.TextureUseMapDiffuse: defaultTexture(metadata.DEFAULT_DIFFUSE_TEXTURE_NAME, solidImage(16, color.NRGBA{255, 255, 255, 255})),
		// Default spec map is black (no specular)
		metadata.TextureUseMapSpecular: defaultTexture(metadata.DEFAULT_SPECULAR_TEXTURE_NAME, solidImage(16, color.NRGBA{0, 0, 0, 255})),
		// Set blue, z-axis by default and alpha.
		metadata.TextureUseMapNormal: defaultTexture(metadata.DEFAULT_NORMAL_TEXTURE_NAME, solidImage(16, color.NRGBA{128, 128, 255, 255})),
	}
}

func defaultTexture(name string, img *image.NRGBA) *metadata.Texture {
	b := img.Bounds()
	return &metadata.Texture{
		Name:      name,
		Width:     uint32(b.Dx()),
		Height:    uint32(b.Dy()),
		Image:     img,
		IsDefault: true,
	}
}

func solidImage(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}
