package metadata

import "image"

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The default diffuse texture name. */
	DEFAULT_DIFFUSE_TEXTURE_NAME string = "default_DIFF"
	/** @brief The default specular texture name. */
	DEFAULT_SPECULAR_TEXTURE_NAME string = "default_SPEC"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
)

/**
 * @brief Represents a texture held in system memory.
 */
type Texture struct {
	/** @brief The texture Name, usually the asset path it was resolved from. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The decoded pixels. */
	Image *image.NRGBA
	/** @brief True for the generated fallback textures. */
	IsDefault bool
}

/** @brief A collection of texture uses */
type TextureUse int

const (
	/** @brief An unknown use. This is default, but should never actually be used. */
	TextureUseUnknown TextureUse = 0x00
	/** @brief The texture is used as a diffuse map. */
	TextureUseMapDiffuse TextureUse = 0x01
	/** @brief The texture is used as a specular map. */
	TextureUseMapSpecular TextureUse = 0x02
	/** @brief The texture is used as a normal map. */
	TextureUseMapNormal TextureUse = 0x03
)

func (u TextureUse) String() string {
	switch u {
	case TextureUseMapDiffuse:
		return "diffuse"
	case TextureUseMapSpecular:
		return "specular"
	case TextureUseMapNormal:
		return "normal"
	}
	return "unknown"
}
