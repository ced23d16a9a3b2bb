package supermesh

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/Faultbox/supermesh/pkg/math"
	"github.com/Faultbox/supermesh/pkg/src"
)

// ErrLocalIDRange is returned by Build when a vertex carries a local id
// outside the asset's mapping table.
var ErrLocalIDRange = errors.New("supermesh: local id out of range")

// MaterialVariant selects the material prototype a mesh is rendered with.
type MaterialVariant int

const (
	Opaque MaterialVariant = iota
	Translucent
)

func (v MaterialVariant) String() string {
	if v == Translucent {
		return "translucent"
	}
	return "opaque"
}

// Mesh is one finished mesh in host coordinates.
type Mesh struct {
	// Name is unique within a supermesh: "<asset>/<mesh>".
	Name  string
	Asset string

	Positions []math.Vec3
	Normals   []math.Vec3
	UV0       []math.Vec2

	// ObjectUV holds (localId, globalId) per vertex, the lookup channel
	// materials use to sample per-object parameters.
	ObjectUV []math.Vec2

	Indices []uint32

	// TriangleObjects holds the global id of each triangle, taken from its
	// first vertex.
	TriangleObjects []uint32

	// Offset places the mesh relative to the supermesh origin.
	Offset math.Vec3

	// Bounds are in mesh-local coordinates.
	Bounds math.Box

	Material MaterialVariant
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// HasObjectIDs reports whether the identity channels are present.
func (m *Mesh) HasObjectIDs() bool {
	return m.ObjectUV != nil
}

// Build converts decoded geometry into a Mesh: positions and normals are
// remapped into host axes and the identity channels are derived from the
// per-vertex local ids through localToGlobal.
//
// Build always returns a usable mesh. When the local ids cannot be resolved
// the identity channels are left empty and an error wrapping ErrLocalIDRange
// is returned alongside the mesh.
func Build(asset string, raw *src.MeshData, localToGlobal []uint32, offset math.Vec3, translucent bool) (*Mesh, error) {
	m := &Mesh{
		Name:      asset + "/" + raw.Name,
		Asset:     asset,
		Positions: remapped(raw.Positions),
		Normals:   remapped(raw.Normals),
		UV0:       raw.TexCoords,
		Indices:   raw.Indices,
		Offset:    offset,
	}
	m.Bounds = math.BoxOf(m.Positions)
	if translucent {
		m.Material = Translucent
	}

	if raw.IDs == nil {
		return m, nil
	}

	objectUV, triangles, err := identity(raw.IDs, raw.Indices, localToGlobal)
	if err != nil {
		return m, errors.Wrapf(err, "mesh %s", m.Name)
	}
	m.ObjectUV = objectUV
	m.TriangleObjects = triangles
	return m, nil
}

func remapped(vs []math.Vec3) []math.Vec3 {
	if vs == nil {
		return nil
	}
	out := make([]math.Vec3, len(vs))
	copy(out, vs)
	math.RemapAxesSlice(out)
	return out
}

// identity derives the per-vertex (local, global) channel and the
// per-triangle global ids.
func identity(ids []float32, indices []uint32, localToGlobal []uint32) ([]math.Vec2, []uint32, error) {
	locals := make([]int, len(ids))
	objectUV := make([]math.Vec2, len(ids))

	for v, f := range ids {
		// NaN and values past the int range must not reach the conversion.
		if math32.IsNaN(f) || f < 0 || f >= float32(len(localToGlobal)) {
			return nil, nil, errors.Wrapf(ErrLocalIDRange, "vertex %d has local id %v, table has %d rows", v, f, len(localToGlobal))
		}
		local := int(f)
		if local >= len(localToGlobal) {
			return nil, nil, errors.Wrapf(ErrLocalIDRange, "vertex %d has local id %v, table has %d rows", v, f, len(localToGlobal))
		}
		locals[v] = local
		objectUV[v] = math.Vec2{X: float32(local), Y: float32(localToGlobal[local])}
	}

	triangles := make([]uint32, len(indices)/3)
	for t := range triangles {
		first := indices[3*t]
		if int(first) >= len(locals) {
			return nil, nil, errors.Wrapf(ErrLocalIDRange, "triangle %d references vertex %d, id channel has %d", t, first, len(locals))
		}
		triangles[t] = localToGlobal[locals[first]]
	}

	return objectUV, triangles, nil
}
