package views

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"github.com/KevinMFinch/Cos426-final/engine/math"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

func quadModel(t *testing.T) *md5.Model {
	t.Helper()
	verts := []md5.Vertex{
		{UV: math.NewVec2(0, 0), WeightStart: 0, WeightCount: 1},
		{UV: math.NewVec2(1, 0), WeightStart: 1, WeightCount: 1},
		{UV: math.NewVec2(1, 1), WeightStart: 2, WeightCount: 1},
		{UV: math.NewVec2(0, 1), WeightStart: 3, WeightCount: 1},
	}
	weights := []md5.Weight{
		{JointIndex: 0, Bias: 1, Offset: math.NewVec3(0, 0, 0)},
		{JointIndex: 0, Bias: 1, Offset: math.NewVec3(1, 0, 0)},
		{JointIndex: 0, Bias: 1, Offset: math.NewVec3(1, 1, 0)},
		{JointIndex: 0, Bias: 1, Offset: math.NewVec3(0, 1, 0)},
	}
	m := &md5.Model{
		Name:     "quad",
		Meshes:   []*md5.Mesh{md5.NewMesh(md5.Material{}, verts, weights, []uint16{0, 1, 2, 0, 2, 3})},
		Skeleton: md5.Skeleton{{Name: "origin", ParentIndex: -1, Orientation: math.NewQuatFromXYZ(0, 0, 0)}},
	}
	for _, err := range m.Skin(nil, md5.TangentOptions{}) {
		if err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

func TestRenderBasisAtlas(t *testing.T) {
	img, err := RenderBasisAtlas(quadModel(t), 16)
	if err != nil {
		t.Fatalf("RenderBasisAtlas:\nhave %v\nwant nil", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("RenderBasisAtlas: bounds\nhave %v\nwant 16x16", b)
	}
	// Normal (0, -1, 0) maps to roughly (128, 0, 128).
	c := img.NRGBAAt(8, 8)
	if !near(c.R, 128) || !near(c.G, 0) || !near(c.B, 128) || c.A != 255 {
		t.Fatalf("RenderBasisAtlas: centre texel\nhave %v\nwant ~{128 0 128 255}", c)
	}
}

func TestRenderBasisAtlasErrors(t *testing.T) {
	if _, err := RenderBasisAtlas(quadModel(t), 0); err == nil {
		t.Fatal("RenderBasisAtlas(size 0)\nhave nil\nwant error")
	}
	empty := &md5.Model{Meshes: []*md5.Mesh{md5.NewMesh(md5.Material{}, nil, nil, nil)}}
	if _, err := RenderBasisAtlas(empty, 8); !errors.Is(err, ErrNoBasis) {
		t.Fatalf("RenderBasisAtlas(unskinned)\nhave %v\nwant %v", err, ErrNoBasis)
	}
}

func TestWriteBasisPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previews", "quad.webp")
	if err := WriteBasisPreview(path, quadModel(t), 24); err != nil {
		t.Fatalf("WriteBasisPreview:\nhave %v\nwant nil", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Fatalf("WriteBasisPreview: header\nhave %q\nwant RIFF....WEBP", data[:min(12, len(data))])
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("webp.DecodeConfig:\nhave %v\nwant nil", err)
	}
	if cfg.Width != 24 || cfg.Height != 24 {
		t.Fatalf("WriteBasisPreview: size\nhave %dx%d\nwant 24x24", cfg.Width, cfg.Height)
	}
}
