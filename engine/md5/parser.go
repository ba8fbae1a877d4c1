package md5

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/math"
)

// md5mesh lines are short, but exporters have been known to emit very long commandline strings.
const maxLineSize = 1 << 20

type parseOptions struct {
	flipV bool
	name  string
}

// ParseOption configures Parse and ParseReader.
type ParseOption func(*parseOptions)

// WithFlipV stores 1-v instead of v for every vertex, for textures that are
// not stored upside down the way Doom 3's TGAs are.
func WithFlipV() ParseOption {
	return func(o *parseOptions) {
		o.flipV = true
	}
}

// WithModelName sets Model.Name. An empty name keeps the default.
func WithModelName(name string) ParseOption {
	return func(o *parseOptions) {
		if name != "" {
			o.name = name
		}
	}
}

type parser struct {
	opts  parseOptions
	model *Model

	line           int
	inJoints       bool
	mesh           *Mesh
	jointsExpected int
	meshesExpected int
}

// Parse parses the text of an .md5mesh file.
func Parse(text string, opts ...ParseOption) (*Model, error) {
	return ParseReader(strings.NewReader(text), opts...)
}

/**
 * @brief Parses an .md5mesh file line by line.
 *
 * Parsing is best effort: malformed or out of range records are skipped and
 * reported in Model.Warnings (each logged as a warning too). Only empty input,
 * an unterminated joints block and read errors fail the parse.
 *
 * @param r The source.
 * @param opts Parse options.
 * @return The model with its bind skeleton. Positions and the tangent basis
 * are not built yet.
 */
func ParseReader(r io.Reader, opts ...ParseOption) (*Model, error) {
	o := parseOptions{name: DEFAULT_MODEL_NAME}
	for _, opt := range opts {
		opt(&o)
	}

	p := &parser{
		opts:           o,
		model:          &Model{ID: uuid.New(), Name: o.name},
		jointsExpected: -1,
		meshesExpected: -1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	empty := true
	for scanner.Scan() {
		p.line++
		raw := strings.TrimSpace(scanner.Text())
		tokens := tokenize(raw)
		if len(tokens) == 0 {
			continue
		}
		empty = false

		if p.inJoints {
			if raw[0] == '}' {
				p.inJoints = false
				continue
			}
			p.parseJoint(tokens)
			continue
		}
		p.parseLine(tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("md5: reading %s: %w", o.name, err)
	}
	if empty {
		return nil, ErrEmptyInput
	}
	if p.inJoints {
		return nil, &ParseError{Line: p.line, Err: ErrUnexpectedEOF, Msg: "joints block is not closed"}
	}

	p.finish()
	return p.model, nil
}

func (p *parser) warn(err error) {
	p.model.Warnings = append(p.model.Warnings, err)
	core.LogWarn("%s: %v", p.model.Name, err)
}

func (p *parser) warnLine(err error, format string, args ...interface{}) {
	p.warn(&ParseError{Line: p.line, Err: err, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) parseLine(tokens []string) {
	switch tokens[0] {
	case "MD5Version":
		version, ok := p.intArg(tokens, 2)
		if ok && version != MD5_VERSION {
			p.warnLine(ErrUnsupportedVersion, "have %d, want %d", version, MD5_VERSION)
		}
	case "commandline":
	case "numJoints":
		if n, ok := p.countArg(tokens, MD5_MAX_JOINTS); ok {
			p.jointsExpected = n
		}
	case "numMeshes":
		if n, ok := p.countArg(tokens, MD5_MAX_MESHES); ok {
			p.meshesExpected = n
		}
	case "joints":
		if len(tokens) != 2 || tokens[1] != "{" {
			p.warnLine(ErrMalformedRecord, "expected 'joints {'")
			return
		}
		p.inJoints = true
	case "mesh":
		if len(tokens) != 2 || tokens[1] != "{" {
			p.warnLine(ErrMalformedRecord, "expected 'mesh {'")
			return
		}
		p.mesh = &Mesh{}
		p.model.Meshes = append(p.model.Meshes, p.mesh)
	case "}":
		p.mesh = nil
	case "shader", "numverts", "numtris", "numweights", "vert", "tri", "weight":
		if p.mesh == nil {
			p.warnLine(ErrMalformedRecord, "%q outside of a mesh block", tokens[0])
			return
		}
		p.parseMeshRecord(tokens)
	default:
		p.warnLine(ErrMalformedRecord, "unknown keyword %q", tokens[0])
	}
}

func (p *parser) parseMeshRecord(tokens []string) {
	m := p.mesh
	switch tokens[0] {
	case "shader":
		if len(tokens) != 2 {
			p.warnLine(ErrMalformedRecord, "shader takes one quoted name")
			return
		}
		m.Material.BaseTextureName = strings.Trim(tokens[1], "'")
	case "numverts":
		if n, ok := p.countArg(tokens, MD5_MAX_VERTICES); ok {
			m.allocVertices(n)
		}
	case "numtris":
		if n, ok := p.countArg(tokens, MD5_MAX_TRIANGLES); ok {
			m.allocTriangles(n)
		}
	case "numweights":
		if n, ok := p.countArg(tokens, MD5_MAX_WEIGHTS); ok {
			m.allocWeights(n)
		}
	case "vert":
		// vert <index> ( <u> <v> ) <weightStart> <weightCount>
		if !p.expectTokens(tokens, 6) {
			return
		}
		i, ok := p.slotIndex(tokens[1], len(m.Vertices), RecordVertex)
		if !ok {
			return
		}
		uv, ok := p.parseFloats(tokens[2:4])
		if !ok {
			return
		}
		start, ok := p.parseInt(tokens[4])
		if !ok {
			return
		}
		count, ok := p.parseInt(tokens[5])
		if !ok {
			return
		}
		v := uv[1]
		if p.opts.flipV {
			v = 1.0 - v
		}
		m.Vertices[i] = Vertex{UV: math.NewVec2(uv[0], v), WeightStart: start, WeightCount: count}
		m.markWritten(RecordVertex, i)
	case "tri":
		// tri <index> <v0> <v1> <v2>
		if !p.expectTokens(tokens, 5) {
			return
		}
		i, ok := p.slotIndex(tokens[1], len(m.Indices)/3, RecordTriangle)
		if !ok {
			return
		}
		var tri [3]uint16
		for k := range tri {
			idx, err := strconv.ParseUint(tokens[2+k], 10, 16)
			if err != nil {
				if errors.Is(err, strconv.ErrRange) {
					p.warnLine(ErrIndexOutOfRange, "vertex index %s does not fit 16 bits", tokens[2+k])
				} else {
					p.warnLine(ErrMalformedRecord, "bad vertex index %q", tokens[2+k])
				}
				return
			}
			tri[k] = uint16(idx)
		}
		copy(m.Indices[i*3:i*3+3], tri[:])
		m.markWritten(RecordTriangle, i)
	case "weight":
		// weight <index> <joint> <bias> ( <x> <y> <z> )
		if !p.expectTokens(tokens, 7) {
			return
		}
		i, ok := p.slotIndex(tokens[1], len(m.Weights), RecordWeight)
		if !ok {
			return
		}
		joint, ok := p.parseInt(tokens[2])
		if !ok {
			return
		}
		f, ok := p.parseFloats(tokens[3:7])
		if !ok {
			return
		}
		m.Weights[i] = Weight{JointIndex: joint, Bias: f[0], Offset: math.NewVec3(f[1], f[2], f[3])}
		m.markWritten(RecordWeight, i)
	}
}

// "name" parent ( px py pz ) ( qx qy qz )
func (p *parser) parseJoint(tokens []string) {
	index := len(p.model.Skeleton)
	if p.jointsExpected >= 0 && index >= p.jointsExpected {
		p.warnLine(ErrCountMismatch, "joint %q beyond numJoints %d ignored", tokens[0], p.jointsExpected)
		return
	}
	if !p.expectTokens(tokens, 8) {
		return
	}
	parent, ok := p.parseInt(tokens[1])
	if !ok {
		return
	}
	f, ok := p.parseFloats(tokens[2:8])
	if !ok {
		return
	}
	if parent < -1 || parent >= index {
		p.warnLine(ErrIndexOutOfRange, "joint %d %q has parent %d", index, tokens[0], parent)
	}
	p.model.Skeleton = append(p.model.Skeleton, Joint{
		Name:        tokens[0],
		ParentIndex: parent,
		Position:    math.NewVec3(f[0], f[1], f[2]),
		Orientation: math.NewQuatFromXYZ(f[3], f[4], f[5]),
	})
}

func (p *parser) finish() {
	if p.jointsExpected >= 0 && len(p.model.Skeleton) != p.jointsExpected {
		p.warn(fmt.Errorf("%w: numJoints %d, parsed %d", ErrCountMismatch, p.jointsExpected, len(p.model.Skeleton)))
	}
	if p.meshesExpected >= 0 && len(p.model.Meshes) != p.meshesExpected {
		p.warn(fmt.Errorf("%w: numMeshes %d, parsed %d", ErrCountMismatch, p.meshesExpected, len(p.model.Meshes)))
	}
	for i, m := range p.model.Meshes {
		for k := RecordKind(0); k < recordKindCount; k++ {
			if missing := m.Missing(k); missing > 0 {
				p.warn(fmt.Errorf("%w: mesh %d: %d of %d %s never written", ErrIncompleteMesh, i, missing, m.slots(k), k))
			}
		}
	}
}

func (p *parser) expectTokens(tokens []string, n int) bool {
	if len(tokens) != n {
		p.warnLine(ErrMalformedRecord, "%s: have %d fields, want %d", tokens[0], len(tokens), n)
		return false
	}
	return true
}

func (p *parser) intArg(tokens []string, n int) (int, bool) {
	if !p.expectTokens(tokens, n) {
		return 0, false
	}
	return p.parseInt(tokens[n-1])
}

func (p *parser) countArg(tokens []string, limit int) (int, bool) {
	n, ok := p.intArg(tokens, 2)
	if !ok {
		return 0, false
	}
	if n < 0 {
		p.warnLine(ErrMalformedRecord, "%s: negative count %d", tokens[0], n)
		return 0, false
	}
	if n > limit {
		p.warnLine(ErrMalformedRecord, "%s: count %d exceeds %d", tokens[0], n, limit)
		return 0, false
	}
	return n, true
}

func (p *parser) slotIndex(s string, slots int, kind RecordKind) (int, bool) {
	i, ok := p.parseInt(s)
	if !ok {
		return 0, false
	}
	if i < 0 || i >= slots {
		p.warnLine(ErrIndexOutOfRange, "%s index %d, have %d slots", kind, i, slots)
		return 0, false
	}
	return i, true
}

func (p *parser) parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		p.warnLine(ErrMalformedRecord, "bad integer %q", s)
		return 0, false
	}
	return v, true
}

func (p *parser) parseFloats(tokens []string) ([]float32, bool) {
	out := make([]float32, len(tokens))
	for i, s := range tokens {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			p.warnLine(ErrMalformedRecord, "bad number %q", s)
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// tokenize splits a line on blanks and parentheses. A double quoted string
// is one token (without the quotes) and "//" starts a comment.
func tokenize(line string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote:
			if c == '"' {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inQuote = false
			} else {
				cur.WriteByte(c)
			}
		case c == '"':
			flush()
			inQuote = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			flush()
			return tokens
		case c == ' ' || c == '\t' || c == '\r' || c == '(' || c == ')':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		tokens = append(tokens, cur.String())
	} else {
		flush()
	}
	return tokens
}
