package views

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/KevinMFinch/Cos426-final/engine/math"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

// Supersampling factor of the atlas before it is scaled down.
const ATLAS_SUPERSAMPLE int = 2

var ErrNoBasis = errors.New("model has no mesh with a derived tangent basis")

/**
 * @brief Renders every mesh of the model into texture space: each triangle
 * is drawn at its UV coordinates and coloured by its interpolated vertex
 * normal (xyz mapped from [-1, 1] to [0, 255]). Texels no triangle covers
 * stay transparent. V grows downwards, as in the texture.
 *
 * @param model A skinned model.
 * @param size Width and height of the result in pixels.
 */
func RenderBasisAtlas(model *md5.Model, size int) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("views: atlas size must be > 0, have %d", size)
	}
	ss := size * ATLAS_SUPERSAMPLE
	canvas := image.NewRGBA(image.Rect(0, 0, ss, ss))

	drawn := 0
	for _, mesh := range model.Meshes {
		if !mesh.IsValidForDraw() {
			continue
		}
		for t := 0; t+2 < len(mesh.Indices); t += 3 {
			var uv [3]math.Vec2
			var n [3]math.Vec3
			for k := 0; k < 3; k++ {
				v := int(mesh.Indices[t+k])
				uv[k] = math.NewVec2(mesh.UVs[v*2]*float32(ss), mesh.UVs[v*2+1]*float32(ss))
				n[k] = math.NewVec3FromSlice(mesh.Normals, v)
			}
			rasterizeTriangle(canvas, uv, n)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoBasis
	}

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return out, nil
}

func rasterizeTriangle(dst *image.RGBA, p [3]math.Vec2, n [3]math.Vec3) {
	b := dst.Bounds()
	minX := math.Max(int(math32.Floor(math.Min(math.Min(p[0].X, p[1].X), p[2].X))), b.Min.X)
	maxX := math.Min(int(math32.Ceil(math.Max(math.Max(p[0].X, p[1].X), p[2].X))), b.Max.X-1)
	minY := math.Max(int(math32.Floor(math.Min(math.Min(p[0].Y, p[1].Y), p[2].Y))), b.Min.Y)
	maxY := math.Min(int(math32.Ceil(math.Max(math.Max(p[0].Y, p[1].Y), p[2].Y))), b.Max.Y-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (p[1].Y-p[2].Y)*(p[0].X-p[2].X) + (p[2].X-p[1].X)*(p[0].Y-p[2].Y)
	if math32.Abs(det) < 1e-12 {
		return
	}
	invDet := 1.0 / det

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5 - p[2].Y
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5 - p[2].X
			w0 := ((p[1].Y-p[2].Y)*px + (p[2].X-p[1].X)*py) * invDet
			w1 := ((p[2].Y-p[0].Y)*px + (p[0].X-p[2].X)*py) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}
			nrm, _ := n[0].MulScalar(w0).Add(n[1].MulScalar(w1)).Add(n[2].MulScalar(w2)).Normalized()
			dst.SetRGBA(x, y, color.RGBA{unitToByte(nrm.X), unitToByte(nrm.Y), unitToByte(nrm.Z), 255})
		}
	}
}

func unitToByte(c float32) uint8 {
	return uint8(math.Clamp((c*0.5+0.5)*255+0.5, 0, 255))
}

// EncodeWebP writes img as a lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// WriteBasisPreview renders the atlas of model and saves it as a WebP file at path.
func WriteBasisPreview(path string, model *md5.Model, size int) error {
	img, err := RenderBasisAtlas(model, size)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		return fmt.Errorf("views: WebP encode %s: %w", path, err)
	}
	return f.Close()
}
