package renderer

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/math"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

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
		Meshes:   []*md5.Mesh{md5.NewMesh(md5.Material{BaseTextureName: "quad"}, verts, weights, []uint16{0, 1, 2, 0, 2, 3})},
		Skeleton: md5.Skeleton{{Name: "origin", ParentIndex: -1, Orientation: math.NewQuatFromXYZ(0, 0, 0)}},
	}
	for _, err := range m.Skin(nil, md5.TangentOptions{}) {
		if err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestHeadlessUpload(t *testing.T) {
	hb := NewHeadlessBackend()
	r := New(hb, 16)
	if err := r.Initialize("test"); err != nil {
		t.Fatal(err)
	}
	model := quadModel(t)
	mesh := model.Meshes[0]

	g, err := r.UploadGeometry(mesh.GeometryConfig(model.GeometryName(0)))
	if err != nil {
		t.Fatalf("Renderer.UploadGeometry:\nhave %v\nwant nil", err)
	}
	if g.VertexCount != 4 || g.IndexCount != 6 || g.Generation != 0 {
		t.Fatalf("Renderer.UploadGeometry\nhave %+v\nwant 4 vertices, 6 indices, generation 0", g)
	}
	stored := hb.Uploaded(g.InternalID)
	if stored == nil {
		t.Fatal("HeadlessBackend.Uploaded: have nil")
	}
	// The backend keeps its own copy.
	mesh.Positions[0] = 42
	if stored.Config.Positions[0] == 42 {
		t.Fatal("HeadlessBackend.GeometryUpload: positions alias the mesh buffer")
	}

	g2, err := r.UploadGeometry(mesh.GeometryConfig(model.GeometryName(0)))
	if err != nil {
		t.Fatal(err)
	}
	if g2.Generation != 1 || r.GeometryCount() != 1 || hb.GeometryCount() != 1 {
		t.Fatalf("Renderer.UploadGeometry: replace\nhave generation %d, %d/%d geometries\nwant 1, 1/1", g2.Generation, r.GeometryCount(), hb.GeometryCount())
	}
	if r.Geometry("quad#0") != g2 {
		t.Fatal("Renderer.Geometry: not the latest upload")
	}

	if err := r.DestroyGeometry("quad#0"); err != nil {
		t.Fatal(err)
	}
	if hb.GeometryCount() != 0 {
		t.Fatalf("Renderer.DestroyGeometry: backend still holds %d", hb.GeometryCount())
	}
	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestHeadlessRejectsInvalid(t *testing.T) {
	hb := NewHeadlessBackend()
	base := quadModel(t).Meshes[0].GeometryConfig("quad")

	for _, x := range [...]struct {
		name   string
		mutate func()
	}{
		{"short uvs", func() { base.UVs = base.UVs[:6] }},
		{"missing colours", func() { base.Colours = nil }},
		{"index past the end", func() { base.Indices = []uint16{0, 1, 4} }},
		{"partial triangle", func() { base.Indices = base.Indices[:4] }},
	} {
		saved := *base
		x.mutate()
		if _, err := hb.GeometryUpload(base); !errors.Is(err, ErrInvalidGeometry) {
			t.Fatalf("HeadlessBackend.GeometryUpload(%s)\nhave %v\nwant %v", x.name, err, ErrInvalidGeometry)
		}
		*base = saved
	}
	if _, err := hb.GeometryUpload(base); err != nil {
		t.Fatalf("HeadlessBackend.GeometryUpload(valid)\nhave %v\nwant nil", err)
	}
}

func TestDebugRendererTangentBasis(t *testing.T) {
	hb := NewHeadlessBackend()
	r := New(hb, 8)
	model := quadModel(t)

	if n := r.Debug().AddTangentBasis(model, 0.5); n != 12 {
		t.Fatalf("DebugRenderer.AddTangentBasis\nhave %d\nwant 12", n)
	}
	lines := r.Debug().Lines()
	if len(lines) != 8 {
		t.Fatalf("DebugRenderer.Lines: bounded buffer\nhave %d\nwant 8", len(lines))
	}
	// The first four lines were dropped, so the oldest kept is vertex 1's tangent.
	if lines[0].Colour != md5.TangentLineColour {
		t.Fatalf("DebugRenderer.Lines[0].Colour\nhave %v\nwant %v", lines[0].Colour, md5.TangentLineColour)
	}

	if err := r.DrawFrame(0.016); err != nil {
		t.Fatal(err)
	}
	if hb.LinesDrawn() != 8 || r.FrameNumber() != 1 {
		t.Fatalf("Renderer.DrawFrame\nhave %d lines, frame %d\nwant 8, 1", hb.LinesDrawn(), r.FrameNumber())
	}

	r.Debug().Clear()
	r.Debug().AddDebugLine(DebugLine{From: math.NewVec3Zero(), To: math.NewVec3(1, 1, 1), Colour: math.NewVec4Create(1, 1, 1, 1)})
	if x := len(r.Debug().Lines()); x != 1 {
		t.Fatalf("DebugRenderer after Clear\nhave %d lines\nwant 1", x)
	}
}
