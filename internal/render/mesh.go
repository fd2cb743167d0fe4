package render

import "geo-overlay-viewer/internal/mathutil"

// Mesh pairs geometry with a material and a world placement. The
// Visible flag is a derived copy of the owning layer's visibility,
// refreshed each tick by the composer; the mesh never owns layer
// state itself.
type Mesh struct {
	Name     string
	Geometry *Geometry
	Material *Material
	Visible  bool
	Position mathutil.Vec3
	Scale    mathutil.Vec3
}

// NewMesh creates a visible mesh with unit scale at the origin.
func NewMesh(name string, g *Geometry, m *Material) *Mesh {
	return &Mesh{
		Name:     name,
		Geometry: g,
		Material: m,
		Visible:  true,
		Scale:    mathutil.Vec3{1, 1, 1},
	}
}

// ModelMatrix builds the mesh's world transform from position and scale.
func (m *Mesh) ModelMatrix() mathutil.Mat4 {
	return mathutil.Mat4Mul(mathutil.Mat4Translate(m.Position), mathutil.Mat4Scale(m.Scale))
}

// Dispose releases the mesh's geometry and material. Must be called
// before replacing either so prior handles are not leaked.
func (m *Mesh) Dispose() {
	if m == nil {
		return
	}
	if m.Geometry != nil {
		m.Geometry.Release()
	}
	if m.Material != nil {
		m.Material.Release()
	}
}

// Scene is a flat scene graph: an ordered collection of meshes.
type Scene struct {
	meshes []*Mesh
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends a mesh to the scene.
func (s *Scene) Add(m *Mesh) {
	s.meshes = append(s.meshes, m)
}

// Remove detaches a mesh from the scene. The caller remains
// responsible for disposing it.
func (s *Scene) Remove(m *Mesh) {
	for i, cur := range s.meshes {
		if cur == m {
			s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
			return
		}
	}
}

// Meshes returns the scene's meshes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	return s.meshes
}
