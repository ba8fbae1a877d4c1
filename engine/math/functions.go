package math

import (
	"github.com/chewxy/math32"
)

const (
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
	/**
	 * @brief Lower bound used when dividing by a vector length. Vectors shorter
	 * than this are treated as degenerate and scaled by 1/K_NORMALIZE_EPSILON,
	 * which keeps the result finite.
	 */
	K_NORMALIZE_EPSILON float32 = 1e-12
)

// ------------------------------------------
// Vector 2
// ------------------------------------------

/**
 * @brief Creates and returns a new 2-element vector using the supplied values.
 *
 * @param x The x value.
 * @param y The y value.
 * @return A new 2-element vector.
 */
func NewVec2(x, y float32) Vec2 {
	return Vec2{x, y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// ------------------------------------------
// Vector 3
// ------------------------------------------

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 *
 * @param x The x value.
 * @param y The y value.
 * @param z The z value.
 * @return A new 3-element vector.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// NewVec3FromSlice reads three consecutive floats starting at s[3*i].
func NewVec3FromSlice(s []float32, i int) Vec3 {
	return Vec3{s[i*3+0], s[i*3+1], s[i*3+2]}
}

// Store writes v into s[3*i : 3*i+3].
func (v Vec3) Store(s []float32, i int) {
	s[i*3+0] = v.X
	s[i*3+1] = v.Y
	s[i*3+2] = v.Z
}

// AddTo accumulates v into s[3*i : 3*i+3].
func (v Vec3) AddTo(s []float32, i int) {
	s[i*3+0] += v.X
	s[i*3+1] += v.Y
	s[i*3+2] += v.Z
}

func NewVec3Zero() Vec3 {
	return Vec3{0.0, 0.0, 0.0}
}

/**
 * @brief Adds vector_1 to vector_0 and returns a copy of the result.
 *
 * @param vector_0 The first vector.
 * @param vector_1 The second vector.
 * @return The resulting vector.
 */
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		v.X + other.X,
		v.Y + other.Y,
		v.Z + other.Z}
}

/**
 * @brief Subtracts vector_1 from vector_0 and returns a copy of the result.
 *
 * @param vector_0 The first vector.
 * @param vector_1 The second vector.
 * @return The resulting vector.
 */
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		v.X - other.X,
		v.Y - other.Y,
		v.Z - other.Z}
}

/**
 * @brief Multiplies all elements of vector_0 by scalar and returns a copy of the result.
 *
 * @param vector_0 The vector to be multiplied.
 * @param scalar The scalar value.
 * @return A copy of the resulting vector.
 */
func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{
		v.X * scalar,
		v.Y * scalar,
		v.Z * scalar}
}

// Negate flips the direction of v.
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

/**
 * @brief Returns the squared length of the provided vector.
 *
 * @param vector The vector to retrieve the squared length of.
 * @return The squared length.
 */
func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

/**
 * @brief Returns the length of the provided vector.
 *
 * @param vector The vector to retrieve the length of.
 * @return The length.
 */
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

/**
 * @brief Returns a normalized copy of the supplied vector. The length is
 * clamped to K_NORMALIZE_EPSILON, so a zero vector stays zero instead of
 * turning into NaN.
 *
 * @param vector The vector to be normalized.
 * @return A normalized copy of the supplied vector and its original length.
 */
func (v Vec3) Normalized() (Vec3, float32) {
	length := v.Length()
	return v.MulScalar(1.0 / Max(length, K_NORMALIZE_EPSILON)), length
}

/**
 * @brief Returns the dot product between the provided vectors. Typically used
 * to calculate the difference in direction.
 *
 * @param vector_0 The first vector.
 * @param vector_1 The second vector.
 * @return The dot product.
 */
func (v Vec3) Dot(other Vec3) float32 {
	p := float32(0)
	p += v.X * other.X
	p += v.Y * other.Y
	p += v.Z * other.Z
	return p
}

/**
 * @brief Calculates and returns the cross product of the supplied vectors.
 * The cross product is a new vector which is orthoganal to both provided vectors.
 *
 * @param vector_0 The first vector.
 * @param vector_1 The second vector.
 * @return The cross product.
 */
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X}
}

// Reject removes the component of v along the unit vector n (v - (v.n)n).
func (v Vec3) Reject(n Vec3) Vec3 {
	return v.Sub(n.MulScalar(v.Dot(n)))
}

/**
 * @brief Compares all elements of vector_0 and vector_1 and ensures the difference
 * is less than tolerance.
 *
 * @param vector_0 The first vector.
 * @param vector_1 The second vector.
 * @param tolerance The difference tolerance. Typically K_FLOAT_EPSILON or similar.
 * @return True if within tolerance; otherwise false.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	if math32.Abs(v.X-other.X) > tolerance {
		return false
	}

	if math32.Abs(v.Y-other.Y) > tolerance {
		return false
	}

	if math32.Abs(v.Z-other.Z) > tolerance {
		return false
	}

	return true
}

// Min returns the component-wise minimum.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

// ------------------------------------------
// Vector 4
// ------------------------------------------

func NewVec4Create(x, y, z, w float32) Vec4 {
	return Vec4{x, y, z, w}
}

// ------------------------------------------
// Quaternion
// ------------------------------------------

/**
 * @brief Rebuilds a unit quaternion from its vector part. Formats that store
 * only x, y and z (like id Software's md5mesh) rely on this. The radicand is
 * clamped at zero so slightly over-unit input yields w = 0 instead of NaN.
 *
 * @param x The x value.
 * @param y The y value.
 * @param z The z value.
 * @return A quaternion with w = sqrt(1 - x² - y² - z²).
 */
func NewQuatFromXYZ(x, y, z float32) Quaternion {
	t := 1.0 - x*x - y*y - z*z
	return Quaternion{x, y, z, math32.Sqrt(Max(t, 0))}
}

/**
 * @brief Rotates v by the unit quaternion q (q * v * q^-1), using the
 * two-cross-product form: t = 2 (q.xyz x v); v' = v + w t + q.xyz x t.
 *
 * @param v The vector to rotate.
 * @return The rotated vector.
 */
func (q Quaternion) RotateVec3(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).MulScalar(2.0)
	return v.Add(t.MulScalar(q.W)).Add(u.Cross(t))
}
