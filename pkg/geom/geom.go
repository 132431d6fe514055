// Package geom provides the 2-D spatial backing for dungeon generation: rigid
// poses, oriented-box overlap tests, and [World], the reference implementation
// of the placement engine's spatial oracle.
//
// Modules live in a continuous plane. Each instance carries a pose
// (translation plus rotation) applied to its authored footprint; doors are
// points on that footprint with an outward facing. Attachment is a pure rigid
// transform: rotate the new module so the chosen doors face each other, then
// translate so they coincide.
//
// Overlap uses the separating-axis test for oriented rectangles, with a small
// contact epsilon so modules that merely touch edge-to-edge do not count as
// intersecting.
package geom

import "math"

// Vec is a 2-D vector.
type Vec struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec) Dist(o Vec) float64 { return v.Sub(o).Len() }

// Rotate returns v rotated by angle radians counterclockwise.
func (v Vec) Rotate(angle float64) Vec {
	sin, cos := math.Sincos(angle)
	return Vec{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Heading returns the unit vector pointing at angle radians.
func Heading(angle float64) Vec {
	sin, cos := math.Sincos(angle)
	return Vec{cos, sin}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle wraps an angle in radians into (-π, π].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Pose is a rigid 2-D transform: rotate by Angle (radians), then translate
// by Pos.
type Pose struct {
	Pos   Vec
	Angle float64
}

// Apply transforms a local point into world space.
func (p Pose) Apply(local Vec) Vec {
	return local.Rotate(p.Angle).Add(p.Pos)
}

// Box is an oriented rectangle: a center, half extents, and a rotation.
type Box struct {
	Center Vec
	Half   Vec // half width (X) and half depth (Y)
	Angle  float64
}

// corners returns the four world-space corners of the box, with each half
// extent shrunk by eps.
func (b Box) corners(eps float64) [4]Vec {
	hx := math.Max(b.Half.X-eps, 0)
	hy := math.Max(b.Half.Y-eps, 0)
	locals := [4]Vec{{hx, hy}, {-hx, hy}, {-hx, -hy}, {hx, -hy}}
	var out [4]Vec
	for i, l := range locals {
		out[i] = l.Rotate(b.Angle).Add(b.Center)
	}
	return out
}

// axes returns the two face normals of the box.
func (b Box) axes() [2]Vec {
	return [2]Vec{Heading(b.Angle), Heading(b.Angle + math.Pi/2)}
}

// Overlaps reports whether two oriented boxes overlap, using the separating
// axis test. Each box is shrunk by eps per side so exact edge contact counts
// as non-overlapping.
func Overlaps(a, b Box, eps float64) bool {
	ca := a.corners(eps)
	cb := b.corners(eps)
	axesA, axesB := a.axes(), b.axes()
	for _, axis := range append(axesA[:], axesB[:]...) {
		if separated(axis, ca, cb) {
			return false
		}
	}
	return true
}

func separated(axis Vec, a, b [4]Vec) bool {
	minA, maxA := project(axis, a)
	minB, maxB := project(axis, b)
	return maxA < minB || maxB < minA
}

func project(axis Vec, corners [4]Vec) (lo, hi float64) {
	lo = axis.Dot(corners[0])
	hi = lo
	for _, c := range corners[1:] {
		d := axis.Dot(c)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
