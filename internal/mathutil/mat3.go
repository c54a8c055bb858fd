package mathutil

// Mat3 is a row-major 3×3 linear transform (rotation and scale part of a
// node matrix).
type Mat3 [9]float64

// Mat3Diag builds a pure scale.
func Mat3Diag(x, y, z float64) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// Mat3Mul composes two transforms; b is applied first.
func Mat3Mul(a, b Mat3) Mat3 {
	var m Mat3
	for i := range m {
		r, c := i/3, i%3
		m[i] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
	}
	return m
}

func (m Mat3) MulVec3(v Vec3) Vec3 {
	row := func(r int) float64 { return m[r*3]*v[0] + m[r*3+1]*v[1] + m[r*3+2]*v[2] }
	return Vec3{row(0), row(1), row(2)}
}

// cofactors returns the cofactor matrix C, with C = det(m) * inverse(m)ᵀ.
func (m Mat3) cofactors() Mat3 {
	return Mat3{
		m[4]*m[8] - m[5]*m[7], m[5]*m[6] - m[3]*m[8], m[3]*m[7] - m[4]*m[6],
		m[2]*m[7] - m[1]*m[8], m[0]*m[8] - m[2]*m[6], m[1]*m[6] - m[0]*m[7],
		m[1]*m[5] - m[2]*m[4], m[2]*m[3] - m[0]*m[5], m[0]*m[4] - m[1]*m[3],
	}
}

// NormalMatrix returns the inverse-transpose that carries surface normals
// through m. Results are meant to be renormalized. A singular m (a surface
// flattened onto a plane or line) yields its cofactors unscaled, which still
// point along the surviving normal direction instead of collapsing to zero.
func (m Mat3) NormalMatrix() Mat3 {
	c := m.cofactors()
	det := m[0]*c[0] + m[1]*c[1] + m[2]*c[2]
	if det == 0 {
		return c
	}
	for i := range c {
		c[i] /= det
	}
	return c
}
