package md5

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput            = errors.New("no md5 mesh data found")
	ErrUnexpectedEOF         = errors.New("unexpected end of input")
	ErrUnsupportedVersion    = errors.New("unsupported MD5Version")
	ErrMalformedRecord       = errors.New("malformed record")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrCountMismatch         = errors.New("declared count does not match parsed count")
	ErrIncompleteMesh        = errors.New("mesh has unwritten slots")
	ErrJointIndexOutOfRange  = errors.New("weight references a joint outside the skeleton")
	ErrWeightRangeOutOfRange = errors.New("vertex weight range outside the weight array")
	ErrMissingSkinData       = errors.New("positions and uvs must be built before deriving the tangent basis")
	ErrDegenerateGeometry    = errors.New("mesh contains degenerate triangles")
)

// ParseError locates a parse problem in the source text. Line is 1-based.
type ParseError struct {
	Line int
	Err  error
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("md5: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("md5: line %d: %v: %s", e.Line, e.Err, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SkinError identifies the vertex, weight and joint involved in a failed skinning pass.
// Fields that do not apply are -1.
type SkinError struct {
	Vertex int
	Weight int
	Joint  int
	Err    error
}

func (e *SkinError) Error() string {
	return fmt.Sprintf("md5: vertex %d, weight %d, joint %d: %v", e.Vertex, e.Weight, e.Joint, e.Err)
}

func (e *SkinError) Unwrap() error { return e.Err }
