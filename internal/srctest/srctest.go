// Package srctest builds synthetic SRC containers and mapping sidecars for
// tests of the packages consuming them.
package srctest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Faultbox/supermesh/pkg/mapping"
	"github.com/Faultbox/supermesh/pkg/math"
	"github.com/Faultbox/supermesh/pkg/src"
)

// Builder assembles a container. Every view gets its own single-chunk buffer
// view.
type Builder struct {
	tb      testing.TB
	header  src.Header
	payload bytes.Buffer
}

// NewBuilder creates an empty container builder.
func NewBuilder(tb testing.TB) *Builder {
	return &Builder{
		tb: tb,
		header: src.Header{
			Accessors: src.Accessors{
				IndexViews:     map[string]src.IndexView{},
				AttributeViews: map[string]src.AttributeView{},
			},
			BufferViews:  map[string]src.BufferView{},
			BufferChunks: map[string]src.BufferChunk{},
		},
	}
}

// Header returns the header being built so tests can corrupt it before
// serializing.
func (b *Builder) Header() *src.Header {
	return &b.header
}

// Chunk appends data to the payload as a chunk plus a single-chunk buffer
// view, both called name.
func (b *Builder) Chunk(name string, data any) {
	b.tb.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		b.tb.Fatalf("writing %s: %v", name, err)
	}
	b.header.BufferChunks[name] = src.BufferChunk{
		ByteOffset: b.payload.Len(),
		ByteLength: buf.Len(),
	}
	b.header.BufferViews[name] = src.BufferView{Chunks: []string{name}}
	b.payload.Write(buf.Bytes())
}

// Indices adds an index view backed by its own chunk.
func (b *Builder) Indices(name string, indices []uint16) {
	b.tb.Helper()
	b.Chunk(name, indices)
	b.header.Accessors.IndexViews[name] = src.IndexView{BufferView: name, Count: len(indices), ComponentType: 5123}
}

// Attribute adds a float attribute view backed by its own chunk.
func (b *Builder) Attribute(name, typ string, stride, count int, data any) {
	b.tb.Helper()
	b.Chunk(name, data)
	b.header.Accessors.AttributeViews[name] = src.AttributeView{
		BufferView:    name,
		ByteStride:    stride,
		Count:         count,
		ComponentType: 5126,
		Type:          typ,
	}
}

// AddMesh appends a header mesh referencing existing views.
func (b *Builder) AddMesh(name, indices string, attrs src.MeshAttributes) {
	b.header.Meshes = append(b.header.Meshes, src.MeshEntry{Name: name, Indices: indices, Attributes: attrs})
}

// Mesh adds a mesh with the given channels, each in views prefixed by the
// mesh name. Nil channels are omitted.
func (b *Builder) Mesh(name string, indices []uint16, positions, normals []math.Vec3, uv []math.Vec2, ids []float32) {
	b.tb.Helper()

	idx := name + "_idx"
	b.Indices(idx, indices)

	var attrs src.MeshAttributes
	attr := func(channel, typ string, stride, count int, data any) string {
		view := fmt.Sprintf("%s_%s", name, channel)
		b.Attribute(view, typ, stride, count, data)
		return view
	}
	if positions != nil {
		attrs.Position = attr("pos", "VEC3", 12, len(positions), positions)
	}
	if normals != nil {
		attrs.Normal = attr("nrm", "VEC3", 12, len(normals), normals)
	}
	if uv != nil {
		attrs.TexCoord = attr("uv", "VEC2", 8, len(uv), uv)
	}
	if ids != nil {
		attrs.ID = attr("id", "SCALAR", 4, len(ids), ids)
	}

	b.AddMesh(name, idx, attrs)
}

// HeaderJSON returns the encoded header.
func (b *Builder) HeaderJSON() []byte {
	b.tb.Helper()
	header, err := json.Marshal(b.header)
	if err != nil {
		b.tb.Fatalf("marshaling header: %v", err)
	}
	return header
}

// Bytes serializes the container with the supported version,
// zlib-compressing the payload when compressed is set.
func (b *Builder) Bytes(compressed bool) []byte {
	b.tb.Helper()
	magic := uint32(src.MagicUncompressed)
	if compressed {
		magic = src.MagicCompressed
	}
	return b.Build(magic, src.SupportedVersion)
}

// Build serializes the container with arbitrary preamble words. The payload
// is compressed exactly when magic is src.MagicCompressed.
func (b *Builder) Build(magic, version uint32) []byte {
	b.tb.Helper()
	header := b.HeaderJSON()

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, [3]uint32{magic, version, uint32(len(header))})
	out.Write(header)

	if magic != src.MagicCompressed {
		out.Write(b.payload.Bytes())
		return out.Bytes()
	}

	binary.Write(&out, binary.LittleEndian, uint32(b.payload.Len()))
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(b.payload.Bytes()); err != nil {
		b.tb.Fatalf("compressing payload: %v", err)
	}
	if err := zw.Close(); err != nil {
		b.tb.Fatalf("compressing payload: %v", err)
	}
	return out.Bytes()
}

// Quad returns a container with one two-triangle mesh "m0" on the z=0 plane.
// The first triangle belongs to local id 0, the second to local id 1.
func Quad(tb testing.TB, compressed bool) []byte {
	tb.Helper()
	b := NewBuilder(tb)
	b.Mesh("m0",
		[]uint16{0, 1, 2, 3, 2, 1},
		[]math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}},
		[]math.Vec3{{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}},
		[]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		[]float32{0, 0, 0, 1},
	)
	return b.Bytes(compressed)
}

// Mapping returns a sidecar with one row per name, all sharing one
// appearance with the given transparency.
func Mapping(tb testing.TB, transparency float32, names ...string) []byte {
	tb.Helper()

	m := mapping.Mapping{NumberOfIDs: len(names)}
	for _, n := range names {
		m.Mapping = append(m.Mapping, mapping.Row{Name: n, Appearance: "mat"})
	}
	m.Appearance = []mapping.Appearance{{
		Name: "mat",
		Material: mapping.MaterialSpec{
			DiffuseColor: "0.5 0.25 1",
			Transparency: json.RawMessage(fmt.Sprintf("%q", fmt.Sprint(transparency))),
		},
	}}

	data, err := json.Marshal(m)
	if err != nil {
		tb.Fatalf("marshaling mapping: %v", err)
	}
	return data
}
