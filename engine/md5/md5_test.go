package md5

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/chewxy/math32"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/math"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

const triangleMesh = `MD5Version 10
commandline "dmap triangle"

numJoints 1
numMeshes 1

joints {
	"origin"	-1 ( 0 0 0 ) ( 0 0 0 )		// root
}

mesh {
	// a single right triangle in the xz plane
	shader "models/test/triangle"

	numverts 3
	vert 0 ( 0 0 ) 0 1
	vert 1 ( 1 0 ) 1 1
	vert 2 ( 0 1 ) 2 1

	numtris 1
	tri 0 0 1 2

	numweights 3
	weight 0 0 1 ( 0 0 0 )
	weight 1 0 1 ( 1 0 0 )
	weight 2 0 1 ( 0 1 0 )
}
`

func lineOf(text, substr string) int {
	for i, l := range strings.Split(text, "\n") {
		if strings.Contains(l, substr) {
			return i + 1
		}
	}
	return -1
}

func TestParseTriangle(t *testing.T) {
	m, err := Parse(triangleMesh, WithModelName("triangle"))
	if err != nil {
		t.Fatalf("Parse:\nhave %v\nwant nil", err)
	}
	if len(m.Warnings) != 0 {
		t.Fatalf("Parse: warnings\nhave %v\nwant none", m.Warnings)
	}
	if m.Name != "triangle" {
		t.Fatalf("Parse: Model.Name\nhave %q\nwant %q", m.Name, "triangle")
	}
	if len(m.Skeleton) != 1 || m.Skeleton[0].Name != "origin" || m.Skeleton[0].ParentIndex != -1 {
		t.Fatalf("Parse: Model.Skeleton\nhave %+v\nwant [{origin -1 ...}]", m.Skeleton)
	}
	if len(m.Meshes) != 1 {
		t.Fatalf("Parse: len(Model.Meshes)\nhave %d\nwant 1", len(m.Meshes))
	}
	mesh := m.Meshes[0]
	if x := mesh.Material.BaseTextureName; x != "models/test/triangle" {
		t.Fatalf("Parse: BaseTextureName\nhave %q\nwant %q", x, "models/test/triangle")
	}
	if len(mesh.Vertices) != 3 || len(mesh.Weights) != 3 || len(mesh.Indices) != 3 {
		t.Fatalf("Parse: record sizes\nhave %d/%d/%d\nwant 3/3/3", len(mesh.Vertices), len(mesh.Weights), len(mesh.Indices))
	}
	if !mesh.Complete() {
		t.Fatal("Mesh.Complete: have false, want true")
	}
	want := Vertex{UV: math.NewVec2(1, 0), WeightStart: 1, WeightCount: 1}
	if x := mesh.Vertices[1]; x != want {
		t.Fatalf("Parse: Vertices[1]\nhave %+v\nwant %+v", x, want)
	}
	if x := mesh.Weights[2]; x.JointIndex != 0 || x.Bias != 1 || x.Offset != math.NewVec3(0, 1, 0) {
		t.Fatalf("Parse: Weights[2]\nhave %+v\nwant {0 1 {0 1 0}}", x)
	}
	if mesh.IsValidForDraw() {
		t.Fatal("Mesh.IsValidForDraw: have true before skinning, want false")
	}
}

func TestParseDefaultName(t *testing.T) {
	m, err := Parse(triangleMesh)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != DEFAULT_MODEL_NAME {
		t.Fatalf("Parse: Model.Name\nhave %q\nwant %q", m.Name, DEFAULT_MODEL_NAME)
	}
	other, _ := Parse(triangleMesh)
	if m.ID == other.ID {
		t.Fatal("Parse: two models share an ID")
	}
}

func TestParseMeshCountMismatch(t *testing.T) {
	text := strings.Replace(triangleMesh, "numMeshes 1", "numMeshes 2", 1)
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse:\nhave %v\nwant nil", err)
	}
	if len(m.Meshes) != 1 {
		t.Fatalf("Parse: len(Model.Meshes)\nhave %d\nwant 1", len(m.Meshes))
	}
	if len(m.Warnings) != 1 {
		t.Fatalf("Parse: warnings\nhave %v\nwant exactly one", m.Warnings)
	}
	if !errors.Is(m.Warnings[0], ErrCountMismatch) {
		t.Fatalf("Parse: warning\nhave %v\nwant %v", m.Warnings[0], ErrCountMismatch)
	}
}

func TestParseUnclosedJoints(t *testing.T) {
	text := "MD5Version 10\nnumJoints 2\njoints {\n\t\"a\" -1 ( 0 0 0 ) ( 0 0 0 )\n\t\"b\" 0 ( 1 0 0 ) ( 0 0 0 )\n"
	_, err := Parse(text)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse: unclosed joints\nhave %v\nwant *ParseError", err)
	}
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Parse: unclosed joints\nhave %v\nwant %v", err, ErrUnexpectedEOF)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "\n\n", "   // nothing here\n"} {
		if _, err := Parse(text); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("Parse(%q)\nhave %v\nwant %v", text, err, ErrEmptyInput)
		}
	}
}

func TestParseFlipV(t *testing.T) {
	for _, x := range [...]struct {
		opts []ParseOption
		want [3]float32
	}{
		{nil, [3]float32{0, 0, 1}},
		{[]ParseOption{WithFlipV()}, [3]float32{1, 1, 0}},
	} {
		m, err := Parse(triangleMesh, x.opts...)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range m.Meshes[0].Vertices {
			if v.UV.Y != x.want[i] {
				t.Fatalf("Parse: Vertices[%d].UV.Y (%d options)\nhave %v\nwant %v", i, len(x.opts), v.UV.Y, x.want[i])
			}
		}
	}
}

func TestParseMalformedRecord(t *testing.T) {
	text := strings.Replace(triangleMesh, "vert 1 ( 1 0 ) 1 1", "vert 1 ( one 0 ) 1 1", 1)
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse:\nhave %v\nwant nil", err)
	}
	if len(m.Warnings) != 2 {
		t.Fatalf("Parse: warnings\nhave %v\nwant malformed record and incomplete mesh", m.Warnings)
	}
	var perr *ParseError
	if !errors.As(m.Warnings[0], &perr) || !errors.Is(perr, ErrMalformedRecord) {
		t.Fatalf("Parse: Warnings[0]\nhave %v\nwant *ParseError wrapping %v", m.Warnings[0], ErrMalformedRecord)
	}
	if want := lineOf(text, "( one 0 )"); perr.Line != want {
		t.Fatalf("ParseError.Line\nhave %d\nwant %d", perr.Line, want)
	}
	if !errors.Is(m.Warnings[1], ErrIncompleteMesh) {
		t.Fatalf("Parse: Warnings[1]\nhave %v\nwant %v", m.Warnings[1], ErrIncompleteMesh)
	}
	if x := m.Meshes[0].Missing(RecordVertex); x != 1 {
		t.Fatalf("Mesh.Missing(RecordVertex)\nhave %d\nwant 1", x)
	}
	if x := m.Meshes[0].Vertices[2].UV; x != math.NewVec2(0, 1) {
		t.Fatalf("Parse: record after the malformed one\nhave %v\nwant %v", x, math.NewVec2(0, 1))
	}
}

func TestParseOutOfRange(t *testing.T) {
	for _, x := range [...]struct {
		from, to string
		want     error
	}{
		{"vert 2 ( 0 1 ) 2 1", "vert 3 ( 0 1 ) 2 1", ErrIndexOutOfRange},
		{"tri 0 0 1 2", "tri 0 0 1 70000", ErrIndexOutOfRange},
		{"weight 2 0 1 ( 0 1 0 )", "weight 2 0 1 ( 0 1 )", ErrMalformedRecord},
		{"MD5Version 10", "MD5Version 11", ErrUnsupportedVersion},
		{"\tshader", "}\n\tshader", ErrMalformedRecord},
	} {
		m, err := Parse(strings.Replace(triangleMesh, x.from, x.to, 1))
		if err != nil {
			t.Fatalf("Parse(%q):\nhave %v\nwant nil", x.to, err)
		}
		if len(m.Warnings) == 0 || !errors.Is(m.Warnings[0], x.want) {
			t.Fatalf("Parse(%q): warnings\nhave %v\nwant %v first", x.to, m.Warnings, x.want)
		}
	}
}

func TestParseCountLimits(t *testing.T) {
	for _, x := range [...]struct {
		from, to string
	}{
		{"numverts 3", "numverts 65537"},
		{"numverts 3", "numverts 9223372036854775807"},
		{"numtris 1", "numtris 4611686018427387904"},
		{"numweights 3", "numweights 1537228672809129301"},
		{"numJoints 1", "numJoints 9223372036854775807"},
	} {
		m, err := Parse(strings.Replace(triangleMesh, x.from, x.to, 1))
		if err != nil {
			t.Fatalf("Parse(%q):\nhave %v\nwant nil", x.to, err)
		}
		if len(m.Warnings) == 0 || !errors.Is(m.Warnings[0], ErrMalformedRecord) {
			t.Fatalf("Parse(%q): warnings\nhave %v\nwant %v first", x.to, m.Warnings, ErrMalformedRecord)
		}
	}

	m, err := Parse(strings.Replace(triangleMesh, "numverts 3", "numverts 65536", 1))
	if err != nil {
		t.Fatalf("Parse(numverts 65536):\nhave %v\nwant nil", err)
	}
	if x := len(m.Meshes[0].Vertices); x != MD5_MAX_VERTICES {
		t.Fatalf("Parse(numverts 65536): len(Mesh.Vertices)\nhave %d\nwant %d", x, MD5_MAX_VERTICES)
	}
}

func TestParseJoints(t *testing.T) {
	text := `numJoints 2
joints {
	"root" -1 ( 1 2 3 ) ( 0.5 0.5 0.5 )
	"child" 0 ( 0 0 1 ) ( 0 0 0 )
	"extra" 1 ( 0 0 2 ) ( 0 0 0 )
}
`
	m, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Skeleton) != 2 {
		t.Fatalf("Parse: len(Model.Skeleton)\nhave %d\nwant 2", len(m.Skeleton))
	}
	if len(m.Warnings) != 1 || !errors.Is(m.Warnings[0], ErrCountMismatch) {
		t.Fatalf("Parse: warnings\nhave %v\nwant one %v for the extra joint", m.Warnings, ErrCountMismatch)
	}
	root := m.Skeleton[0]
	if root.Position != math.NewVec3(1, 2, 3) {
		t.Fatalf("Parse: root position\nhave %v\nwant {1 2 3}", root.Position)
	}
	if math32.Abs(root.Orientation.W-0.5) > 1e-6 {
		t.Fatalf("Parse: reconstructed w\nhave %v\nwant 0.5", root.Orientation.W)
	}
	q := root.Orientation
	if n := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W); math32.Abs(n-1) > 1e-6 {
		t.Fatalf("Parse: |orientation|\nhave %v\nwant 1", n)
	}
	if m.Skeleton[1].Orientation != (math.Quaternion{W: 1}) {
		t.Fatalf("Parse: zero vector part\nhave %v\nwant identity", m.Skeleton[1].Orientation)
	}
}

func TestParseBadParent(t *testing.T) {
	text := "numJoints 1\njoints {\n\t\"a\" 0 ( 0 0 0 ) ( 0 0 0 )\n}\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Skeleton) != 1 || len(m.Warnings) != 1 || !errors.Is(m.Warnings[0], ErrIndexOutOfRange) {
		t.Fatalf("Parse: self parent\nhave %d joints, %v\nwant 1 joint, one %v", len(m.Skeleton), m.Warnings, ErrIndexOutOfRange)
	}
}

func TestTokenize(t *testing.T) {
	for _, x := range [...]struct {
		line string
		want []string
	}{
		{`vert 0 ( 0.5 1 ) 2 3`, []string{"vert", "0", "0.5", "1", "2", "3"}},
		{`"Left Arm"	4 ( 1 2 3 ) ( 0 0 0 )	// upper`, []string{"Left Arm", "4", "1", "2", "3", "0", "0", "0"}},
		{`shader "models/a//b"`, []string{"shader", "models/a//b"}},
		{`commandline ""`, []string{"commandline", ""}},
		{`// only a comment`, nil},
		{`mesh {`, []string{"mesh", "{"}},
	} {
		have := tokenize(x.line)
		if len(have) != len(x.want) {
			t.Fatalf("tokenize(%q)\nhave %q\nwant %q", x.line, have, x.want)
		}
		for i := range have {
			if have[i] != x.want[i] {
				t.Fatalf("tokenize(%q)\nhave %q\nwant %q", x.line, have, x.want)
			}
		}
	}
}
