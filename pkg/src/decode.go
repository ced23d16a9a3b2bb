package src

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/pkg/math"
)

// MeshData is the raw geometry of one header mesh. Absent or unusable
// channels are nil; the reason for an unusable channel is in Errors.
type MeshData struct {
	Name      string
	Indices   []uint32
	Positions []math.Vec3
	Normals   []math.Vec3
	TexCoords []math.Vec2

	// IDs holds one local object id per vertex, an index into the asset's
	// mapping rows.
	IDs []float32

	Errors []error
}

// TriangleCount returns the number of whole triangles in the index list.
func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Asset is the result of decoding one container.
type Asset struct {
	Preamble         Preamble
	Header           *Header
	UncompressedSize int
	Meshes           []MeshData

	// Dropped lists meshes omitted in strict mode.
	Dropped []string
}

// Triangles returns the total triangle count over all meshes.
func (a *Asset) Triangles() int {
	n := 0
	for i := range a.Meshes {
		n += a.Meshes[i].TriangleCount()
	}
	return n
}

// Vertices returns the total vertex count over all meshes.
func (a *Asset) Vertices() int {
	n := 0
	for i := range a.Meshes {
		n += len(a.Meshes[i].Positions)
	}
	return n
}

// Option configures Decode.
type Option func(*decoder)

// WithLogger sets the logger chunk layout problems are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(d *decoder) {
		if log != nil {
			d.log = log
		}
	}
}

// WithStrictMeshes drops a whole mesh when its index view, or a position view
// it declares, cannot be resolved, instead of emitting partial geometry.
func WithStrictMeshes(strict bool) Option {
	return func(d *decoder) {
		d.strict = strict
	}
}

type decoder struct {
	log    *zap.Logger
	strict bool
}

// Decode parses a container and extracts every mesh it declares.
//
// Format violations and decompression failures abort the decode and no meshes
// are returned. Chunk layout problems only empty the affected channel (or, in
// strict mode, drop the affected mesh). The payload is not retained by the
// returned Asset.
func Decode(data []byte, opts ...Option) (*Asset, error) {
	d := &decoder{log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	f, err := Parse(data)
	if err != nil {
		d.log.Error("src decode aborted", zap.Error(err))
		return nil, err
	}

	asset := &Asset{
		Preamble:         f.Preamble,
		Header:           f.Header,
		UncompressedSize: f.UncompressedSize,
		Meshes:           make([]MeshData, 0, len(f.Header.Meshes)),
	}

	for _, entry := range f.Header.Meshes {
		mesh, ok := d.extract(f, entry)
		if !ok {
			asset.Dropped = append(asset.Dropped, entry.Name)
			continue
		}
		asset.Meshes = append(asset.Meshes, mesh)
	}

	return asset, nil
}

// extract resolves the channels of one mesh. It returns false when strict mode
// rejects the mesh.
func (d *decoder) extract(f *File, entry MeshEntry) (MeshData, bool) {
	mesh := MeshData{Name: entry.Name}
	log := d.log.With(zap.String("mesh", entry.Name))

	fail := func(channel string, err error) {
		log.Error("buffer resolution failed", zap.String("channel", channel), zap.Error(err))
		mesh.Errors = append(mesh.Errors, errors.Wrap(err, channel))
	}

	indices, err := f.ResolveIndices(entry.Indices)
	if err != nil {
		fail("indices", err)
		if d.strict {
			return mesh, false
		}
	}
	mesh.Indices = indices

	attrs := entry.Attributes
	if attrs.Position != "" {
		mesh.Positions, err = ResolveAttribute[math.Vec3](f, attrs.Position)
		if err != nil {
			fail("position", err)
			if d.strict {
				return mesh, false
			}
		}
	}
	if attrs.Normal != "" {
		if mesh.Normals, err = ResolveAttribute[math.Vec3](f, attrs.Normal); err != nil {
			fail("normal", err)
		}
	}
	if attrs.TexCoord != "" {
		if mesh.TexCoords, err = ResolveAttribute[math.Vec2](f, attrs.TexCoord); err != nil {
			fail("texcoord", err)
		}
	}
	if attrs.ID != "" {
		if mesh.IDs, err = ResolveAttribute[float32](f, attrs.ID); err != nil {
			fail("id", err)
		}
	}

	log.Debug("mesh extracted",
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("vertices", len(mesh.Positions)),
		zap.Bool("normals", mesh.Normals != nil),
		zap.Bool("uv0", mesh.TexCoords != nil),
		zap.Bool("ids", mesh.IDs != nil),
	)
	return mesh, true
}
