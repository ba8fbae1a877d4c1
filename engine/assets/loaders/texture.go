package loaders

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

type TextureLoader struct{}

// The tga package registers itself with an empty magic string, which makes
// image.Decode hand every file to it. Decoders are picked by extension instead.
var textureDecoders = map[string]func(io.Reader) (image.Image, error){
	".tga":  tga.Decode,
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
}

// Load decodes a tga, png, jpeg or bmp file into a *metadata.Texture with NRGBA pixels.
func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	decode, ok := textureDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("texture: unsupported format %q", filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	pixels := toNRGBA(img)
	b := pixels.Bounds()

	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(pixels.Pix)),
		Data: &metadata.Texture{
			Name:   filepath.Base(path),
			Width:  uint32(b.Dx()),
			Height: uint32(b.Dy()),
			Image:  pixels,
		},
	}, nil
}

func (tl *TextureLoader) Unload(res *metadata.Resource) error {
	if res != nil {
		res.Data = nil
	}
	return nil
}

// toNRGBA converts any image to a zero-origin NRGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
