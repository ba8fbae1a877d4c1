package systems

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinMFinch/Cos426-final/engine/assets"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
	"github.com/KevinMFinch/Cos426-final/engine/renderer"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

func writeFile(t *testing.T, path string, write func(io.Writer) error) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	writeFile(t, path, func(out io.Writer) error { return png.Encode(out, img) })
}

func newAssetManager(t *testing.T, dir string, watch bool) *assets.AssetManager {
	t.Helper()
	am, err := assets.NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { am.Shutdown() })
	if err := am.Initialize(dir, watch); err != nil {
		t.Fatal(err)
	}
	return am
}

func newHeadlessRenderer(t *testing.T) (*renderer.Renderer, *renderer.HeadlessBackend) {
	t.Helper()
	backend := renderer.NewHeadlessBackend()
	r := renderer.New(backend, 64)
	if err := r.Initialize("systems test"); err != nil {
		t.Fatal(err)
	}
	return r, backend
}

func TestMaterialTextureNames(t *testing.T) {
	for _, x := range [...]struct {
		base, prefix              string
		diffuse, normal, specular string
	}{
		{"models/monsters/imp/imp", "", "models/monsters/imp/imp.tga", "models/monsters/imp/imp_local.tga", "models/monsters/imp/imp_s.tga"},
		{"imp.png", "base/", "base/imp.png", "base/imp_local.png", "base/imp_s.png"},
		{"models/v1.2/imp", "", "models/v1.2/imp.tga", "models/v1.2/imp_local.tga", "models/v1.2/imp_s.tga"},
		{"", "base/", "", "", ""},
	} {
		d, n, s := MaterialTextureNames(x.base, x.prefix)
		if d != x.diffuse || n != x.normal || s != x.specular {
			t.Errorf("MaterialTextureNames(%q, %q)\nhave %q, %q, %q\nwant %q, %q, %q", x.base, x.prefix, d, n, s, x.diffuse, x.normal, x.specular)
		}
	}
}

func TestNewTextureSystemZeroCount(t *testing.T) {
	r, _ := newHeadlessRenderer(t)
	if _, err := NewTextureSystem(&TextureSystemConfig{}, nil, r); err == nil {
		t.Fatal("NewTextureSystem(MaxTextureCount 0)\nhave nil\nwant error")
	}
}

func TestTextureSystemFind(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "textures", "a.png"), 4, 2)
	writePNG(t, filepath.Join(dir, "textures", "b.png"), 2, 2)
	am := newAssetManager(t, dir, false)
	r, _ := newHeadlessRenderer(t)

	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1}, am, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := ts.Initialize(); err != nil {
		t.Fatal(err)
	}
	defer ts.Shutdown()

	a := ts.Find("./textures/a.png", metadata.TextureUseMapDiffuse)
	if a.IsDefault || a.Name != "textures/a.png" || a.Width != 4 || a.Height != 2 {
		t.Fatalf("TextureSystem.Find(a.png)\nhave %q %dx%d default=%v\nwant textures/a.png 4x2", a.Name, a.Width, a.Height, a.IsDefault)
	}
	if again := ts.Find("textures/a.png", metadata.TextureUseMapDiffuse); again != a {
		t.Fatal("TextureSystem.Find(a.png) twice: texture was loaded again")
	}

	// Full: b falls back to the default.
	if b := ts.Find("textures/b.png", metadata.TextureUseMapDiffuse); b != ts.Default(metadata.TextureUseMapDiffuse) {
		t.Fatalf("TextureSystem.Find(b.png) when full\nhave %q\nwant default diffuse", b.Name)
	}

	for _, x := range [...]struct {
		name string
		use  metadata.TextureUse
		want color.NRGBA
	}{
		{"textures/missing_local.tga", metadata.TextureUseMapNormal, color.NRGBA{128, 128, 255, 255}},
		{"textures/missing_s.tga", metadata.TextureUseMapSpecular, color.NRGBA{0, 0, 0, 255}},
		{"", metadata.TextureUseMapDiffuse, color.NRGBA{255, 255, 255, 255}},
	} {
		tex := ts.Find(x.name, x.use)
		if !tex.IsDefault {
			t.Fatalf("TextureSystem.Find(%q, %s)\nhave %q\nwant a default", x.name, x.use, tex.Name)
		}
		if have := tex.Image.NRGBAAt(0, 0); have != x.want {
			t.Fatalf("TextureSystem.Find(%q, %s): pixel\nhave %v\nwant %v", x.name, x.use, have, x.want)
		}
	}
	if d := ts.Default(metadata.TextureUseUnknown); d.Name != metadata.DEFAULT_TEXTURE_NAME || d.Width != 256 {
		t.Fatalf("TextureSystem.Default(unknown)\nhave %q %d\nwant %q 256", d.Name, d.Width, metadata.DEFAULT_TEXTURE_NAME)
	}

	if have := ts.Count(); have != 1 {
		t.Fatalf("TextureSystem.Count\nhave %d\nwant 1", have)
	}
	if !ts.Invalidate("textures/a.png") {
		t.Fatal("TextureSystem.Invalidate(a.png)\nhave false\nwant true")
	}
	if ts.Invalidate("textures/a.png") {
		t.Fatal("second TextureSystem.Invalidate(a.png)\nhave true\nwant false")
	}
	if b := ts.Find("textures/b.png", metadata.TextureUseMapDiffuse); b.IsDefault {
		t.Fatal("TextureSystem.Find(b.png) after Invalidate\nhave default\nwant loaded")
	}
}

type recordingFinder struct {
	calls map[metadata.TextureUse]string
}

func (rf *recordingFinder) Find(name string, use metadata.TextureUse) *metadata.Texture {
	rf.calls[use] = name
	return &metadata.Texture{Name: name}
}

func TestResolveMaterial(t *testing.T) {
	rf := &recordingFinder{calls: make(map[metadata.TextureUse]string)}
	m := md5.Material{BaseTextureName: "models/imp"}
	ResolveMaterial(rf, &m, "base/")

	want := map[metadata.TextureUse]string{
		metadata.TextureUseMapDiffuse:  "base/models/imp.tga",
		metadata.TextureUseMapNormal:   "base/models/imp_local.tga",
		metadata.TextureUseMapSpecular: "base/models/imp_s.tga",
	}
	for use, name := range want {
		if rf.calls[use] != name {
			t.Errorf("ResolveMaterial: %s lookup\nhave %q\nwant %q", use, rf.calls[use], name)
		}
	}
	if m.DiffuseMap.Name != want[metadata.TextureUseMapDiffuse] ||
		m.NormalMap.Name != want[metadata.TextureUseMapNormal] ||
		m.SpecularMap.Name != want[metadata.TextureUseMapSpecular] {
		t.Fatalf("ResolveMaterial: maps\nhave %q, %q, %q", m.DiffuseMap.Name, m.NormalMap.Name, m.SpecularMap.Name)
	}
}
