package render

import "math"

// drawOptions selects the blend/depth behavior for one rasterized mesh.
type drawOptions struct {
	blend      bool    // source-over blending instead of opaque write
	depthWrite bool    // write the depth buffer on pass
	opacity    float64 // multiplied into the source alpha when blending
}

// rasterizeTriangle rasterizes one screen-space triangle into the
// target with a depth test, bilinear texture sampling and optional
// source-over blending.
//
// This is the hot path — no allocations in the inner loop.
func rasterizeTriangle(t *Target, px, py, pz []float64, uvs [][2]float64, face [3]int, mat *Material, opts drawOptions) {
	nv := len(px)
	for _, i := range face {
		if i < 0 || i >= nv {
			return
		}
	}

	x0, y0, z0 := px[face[0]], py[face[0]], pz[face[0]]
	x1, y1, z1 := px[face[1]], py[face[1]], pz[face[1]]
	x2, y2, z2 := px[face[2]], py[face[2]], pz[face[2]]

	tex := mat.Texture
	hasUV := tex != nil && tex.Image() != nil && len(uvs) == nv

	var u0, v0, u1, v1, u2, v2 float64
	if hasUV {
		u0, v0 = uvs[face[0]][0], uvs[face[0]][1]
		u1, v1 = uvs[face[1]][0], uvs[face[1]][1]
		u2, v2 = uvs[face[2]][0], uvs[face[2]][1]
	}

	// Screen bounding box
	w, h := t.Width, t.Height
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= t.Depth[zIdx] {
				continue
			}

			var cr, cg, cb, ca uint8
			if hasUV {
				u := w0*u0 + w1*u1 + w2*u2
				v := w0*v0 + w1*v1 + w2*v2
				cr, cg, cb, ca = tex.Sample(u, v)
			} else {
				cr, cg, cb, ca = mat.Color.R, mat.Color.G, mat.Color.B, mat.Color.A
			}

			// Skip fully transparent texels
			if ca < 8 {
				continue
			}

			pxIdx := zIdx * 4
			if opts.blend {
				// Source-over with material opacity folded in
				alpha := float64(ca) / 255 * opts.opacity
				if alpha <= 0 {
					continue
				}
				inv := 1 - alpha
				t.Color[pxIdx] = clamp255(float64(cr)*alpha + float64(t.Color[pxIdx])*inv)
				t.Color[pxIdx+1] = clamp255(float64(cg)*alpha + float64(t.Color[pxIdx+1])*inv)
				t.Color[pxIdx+2] = clamp255(float64(cb)*alpha + float64(t.Color[pxIdx+2])*inv)
				ta := float64(ca)*opts.opacity + float64(t.Color[pxIdx+3])*inv
				t.Color[pxIdx+3] = clamp255(ta)
			} else {
				t.Color[pxIdx] = cr
				t.Color[pxIdx+1] = cg
				t.Color[pxIdx+2] = cb
				t.Color[pxIdx+3] = ca
			}

			if opts.depthWrite {
				t.Depth[zIdx] = z
			}
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
