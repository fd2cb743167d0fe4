package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major. Used for model, view and
// projection transforms.
type Mat4 [16]float64

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// Project transforms a 3D point (w=1) and returns the homogeneous result
// before perspective division: (x, y, z) and w.
func (m Mat4) Project(v Vec3) (Vec3, float64) {
	p := Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
	w := m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15]
	return p, w
}

// Mat4Translate builds a translation matrix.
func Mat4Translate(t Vec3) Mat4 {
	return Mat4{
		1, 0, 0, t[0],
		0, 1, 0, t[1],
		0, 0, 1, t[2],
		0, 0, 0, 1,
	}
}

// Mat4Scale builds a per-axis scale matrix.
func Mat4Scale(s Vec3) Mat4 {
	return Mat4{
		s[0], 0, 0, 0,
		0, s[1], 0, 0,
		0, 0, s[2], 0,
		0, 0, 0, 1,
	}
}

// Perspective builds a right-handed perspective projection.
// fovY is the vertical field of view in radians. Maps the view frustum
// to NDC with z in [-1, 1] (near plane at -1).
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovY/2)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), 2 * far * near / (near - far),
		0, 0, -1, 0,
	}
}

// Orthographic builds a right-handed orthographic projection.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	return Mat4{
		2 / (right - left), 0, 0, -(right + left) / (right - left),
		0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom),
		0, 0, -2 / (far - near), -(far + near) / (far - near),
		0, 0, 0, 1,
	}
}

// LookAt builds a view matrix for a camera at eye looking at target.
func LookAt(eye, target, up Vec3) Mat4 {
	fwd := target.Sub(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	u := right.Cross(fwd)
	return Mat4{
		right[0], right[1], right[2], -right.Dot(eye),
		u[0], u[1], u[2], -u.Dot(eye),
		-fwd[0], -fwd[1], -fwd[2], fwd.Dot(eye),
		0, 0, 0, 1,
	}
}
