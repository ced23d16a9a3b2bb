package supermesh

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/supermesh/pkg/math"
)

// DefaultParameterMap is the map holding per-object diffuse colour and alpha.
const DefaultParameterMap = "diffuse"

// MeshSink consumes finished meshes.
type MeshSink interface {
	AddMesh(m *Mesh)
}

// Supermesh is the aggregate of all meshes imported under one registry.
// It is itself a MeshSink and forwards every mesh to its own sinks.
type Supermesh struct {
	registry *Registry

	mu     sync.RWMutex
	meshes []*Mesh
	byName map[string]*Mesh
	bounds math.Box
	scale  float32
	units  Unit
	params []*ParameterMap
	sinks  []MeshSink
}

// New creates an empty supermesh with the default diffuse parameter map.
// Objects without a colour are opaque white.
func New(registry *Registry) *Supermesh {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Supermesh{
		registry: registry,
		byName:   make(map[string]*Mesh),
		bounds:   math.EmptyBox(),
		scale:    1,
	}
	s.AddParameterMap(DefaultParameterMap, math.RGBA(1, 1, 1, 1))
	return s
}

// Registry returns the shared object registry.
func (s *Supermesh) Registry() *Registry {
	return s.registry
}

// AddParameterMap creates a named parameter map, or returns the existing one.
func (s *Supermesh) AddParameterMap(name string, fallback math.Vec4) *ParameterMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.params {
		if p.Name() == name {
			return p
		}
	}
	p := NewParameterMap(name, s.registry, fallback)
	s.params = append(s.params, p)
	return p
}

// ParameterMap returns a parameter map by name.
func (s *Supermesh) ParameterMap(name string) *ParameterMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.params {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Diffuse returns the default parameter map.
func (s *Supermesh) Diffuse() *ParameterMap {
	return s.ParameterMap(DefaultParameterMap)
}

// UpdateParameterMaps updates every parameter map. Called after each mapping
// resolution so materials see a table covering every registered object.
func (s *Supermesh) UpdateParameterMaps(force bool) {
	s.mu.RLock()
	params := append([]*ParameterMap(nil), s.params...)
	s.mu.RUnlock()

	for _, p := range params {
		p.Update(force)
	}
}

// AddSink registers a consumer for meshes added from now on.
func (s *Supermesh) AddSink(sink MeshSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// AddMesh stores a mesh and forwards it to the sinks. A mesh whose name is
// already present replaces the earlier one.
func (s *Supermesh) AddMesh(m *Mesh) {
	s.mu.Lock()
	if old, ok := s.byName[m.Name]; ok {
		for i, existing := range s.meshes {
			if existing == old {
				s.meshes[i] = m
				break
			}
		}
		s.bounds = s.recomputeBounds()
	} else {
		s.meshes = append(s.meshes, m)
		s.bounds = s.bounds.Union(m.Bounds.Translate(m.Offset))
	}
	s.byName[m.Name] = m
	sinks := append([]MeshSink(nil), s.sinks...)
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.AddMesh(m)
	}
}

func (s *Supermesh) recomputeBounds() math.Box {
	b := math.EmptyBox()
	for _, m := range s.meshes {
		b = b.Union(m.Bounds.Translate(m.Offset))
	}
	return b
}

// Meshes returns the meshes in insertion order.
func (s *Supermesh) Meshes() []*Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Mesh(nil), s.meshes...)
}

// Mesh returns a mesh by name.
func (s *Supermesh) Mesh(name string) (*Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[name]
	return m, ok
}

// Triangles returns the total triangle count.
func (s *Supermesh) Triangles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.meshes {
		n += m.TriangleCount()
	}
	return n
}

// ObjectIDFromFace returns the object id owning a triangle of a mesh.
func (s *Supermesh) ObjectIDFromFace(mesh string, face int) (string, error) {
	m, ok := s.Mesh(mesh)
	if !ok {
		return "", errors.Errorf("unknown mesh %q", mesh)
	}
	if !m.HasObjectIDs() {
		return "", errors.Errorf("mesh %q has no object ids", mesh)
	}
	if face < 0 || face >= len(m.TriangleObjects) {
		return "", errors.Errorf("face %d out of range for mesh %q (%d triangles)", face, mesh, len(m.TriangleObjects))
	}

	id := m.TriangleObjects[face]
	name, ok := s.registry.Name(id)
	if !ok {
		return "", errors.Errorf("global id %d not registered", id)
	}
	return name, nil
}

// SetUnits sets the model units; the supermesh scale follows.
func (s *Supermesh) SetUnits(u Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = u
	s.scale = u.Scale()
}

// Units returns the model units, empty until SetUnits is called.
func (s *Supermesh) Units() Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// Scale returns the uniform world scale.
func (s *Supermesh) Scale() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scale
}

// Transform returns the supermesh-to-world matrix.
func (s *Supermesh) Transform() mgl32.Mat4 {
	sc := s.Scale()
	return mgl32.Scale3D(sc, sc, sc)
}

// MeshTransform returns the mesh-to-world matrix: the mesh offset followed
// by the supermesh scale.
func (s *Supermesh) MeshTransform(m *Mesh) mgl32.Mat4 {
	return s.Transform().Mul4(mgl32.Translate3D(m.Offset.X, m.Offset.Y, m.Offset.Z))
}

// Bounds returns the bounds of all meshes in supermesh coordinates.
func (s *Supermesh) Bounds() math.Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// WorldBounds returns Bounds transformed to world coordinates.
func (s *Supermesh) WorldBounds() math.Box {
	b := s.Bounds()
	if b.IsEmpty() {
		return b
	}
	t := s.Transform()
	lo := mgl32.TransformCoordinate(mgl32.Vec3(b.Min.Array()), t)
	hi := mgl32.TransformCoordinate(mgl32.Vec3(b.Max.Array()), t)
	return math.BoxOf([]math.Vec3{
		{X: lo[0], Y: lo[1], Z: lo[2]},
		{X: hi[0], Y: hi[1], Z: hi[2]},
	})
}
