package render

import "geo-overlay-viewer/internal/mathutil"

// Camera produces a combined view-projection matrix for a draw.
type Camera interface {
	ViewProjection() mathutil.Mat4
}

// PerspectiveCamera is a positionable perspective camera. Mutate the
// fields, then call UpdateProjection to rebuild the projection matrix;
// the view matrix is derived from Position/Target/Up on every query.
type PerspectiveCamera struct {
	FOV    float64 // vertical field of view, degrees
	Aspect float64
	Near   float64
	Far    float64

	Position mathutil.Vec3
	Target   mathutil.Vec3
	Up       mathutil.Vec3

	proj mathutil.Mat4
}

// NewPerspectiveCamera builds a camera and its initial projection.
func NewPerspectiveCamera(fovDeg, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		FOV:    fovDeg,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mathutil.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// UpdateProjection recomputes the projection matrix from the current
// FOV/Aspect/Near/Far fields.
func (c *PerspectiveCamera) UpdateProjection() {
	c.proj = mathutil.Perspective(mathutil.Deg2Rad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the current projection matrix.
func (c *PerspectiveCamera) ProjectionMatrix() mathutil.Mat4 {
	return c.proj
}

// ViewProjection implements Camera.
func (c *PerspectiveCamera) ViewProjection() mathutil.Mat4 {
	view := mathutil.LookAt(c.Position, c.Target, c.Up)
	return mathutil.Mat4Mul(c.proj, view)
}

// OrthographicCamera projects without perspective. Used by the
// offscreen overlay-synthesis pass.
type OrthographicCamera struct {
	Left, Right float64
	Top, Bottom float64
	Near, Far   float64

	Position mathutil.Vec3
	Target   mathutil.Vec3
	Up       mathutil.Vec3
}

// NewOrthographicCamera builds an orthographic camera looking down -Z.
func NewOrthographicCamera(left, right, top, bottom, near, far float64) *OrthographicCamera {
	return &OrthographicCamera{
		Left: left, Right: right, Top: top, Bottom: bottom,
		Near: near, Far: far,
		Position: mathutil.Vec3{0, 0, 1},
		Target:   mathutil.Vec3{0, 0, 0},
		Up:       mathutil.Vec3{0, 1, 0},
	}
}

// ViewProjection implements Camera.
func (c *OrthographicCamera) ViewProjection() mathutil.Mat4 {
	proj := mathutil.Orthographic(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
	view := mathutil.LookAt(c.Position, c.Target, c.Up)
	return mathutil.Mat4Mul(proj, view)
}
