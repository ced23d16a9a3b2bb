package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/supermesh/internal/supermesh"
	"github.com/Faultbox/supermesh/pkg/math"
	"github.com/Faultbox/supermesh/pkg/src"
)

func triangle(name string, ids []float32) *src.MeshData {
	return &src.MeshData{
		Name:      name,
		Indices:   []uint32{0, 1, 2},
		Positions: []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Normals:   []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
		IDs:       ids,
	}
}

// buildSupermesh returns a supermesh with an opaque mesh carrying object ids
// and a translucent mesh without, exported through g.
func buildSupermesh(t *testing.T, g *GLTF) *supermesh.Supermesh {
	t.Helper()
	sm := supermesh.New(nil)
	sm.AddSink(g)
	sm.Diffuse().AddSink(g)

	wall := sm.Registry().Add("wall")
	sm.Diffuse().SetParameter(wall, math.RGBA(1, 0, 0, 1))

	a, err := supermesh.Build("a", triangle("m0", []float32{0, 0, 0}), []uint32{wall}, math.Vec3{X: 2}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := supermesh.Build("b", triangle("m0", nil), nil, math.Vec3{}, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	sm.AddMesh(a)
	sm.AddMesh(b)
	sm.UpdateParameterMaps(false)
	return sm
}

func TestGLTF_Document(t *testing.T) {
	g := NewGLTF()
	buildSupermesh(t, g)

	doc, err := g.Document(0.1)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if len(doc.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(doc.Meshes))
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("expected root plus 2 mesh nodes, got %d", len(doc.Nodes))
	}
	root := doc.Nodes[0]
	if root.Scale != [3]float32{0.1, 0.1, 0.1} || len(root.Children) != 2 {
		t.Errorf("unexpected root node %+v", root)
	}
	if doc.Nodes[1].Translation != [3]float32{2, 0, 0} {
		t.Errorf("unexpected translation %v", doc.Nodes[1].Translation)
	}

	withIDs := doc.Meshes[0].Primitives[0].Attributes
	if _, ok := withIDs[AttrObjectIDs]; !ok {
		t.Error("mesh with ids should have TEXCOORD_1")
	}
	if _, ok := withIDs["NORMAL"]; !ok {
		t.Error("expected NORMAL attribute")
	}
	withoutIDs := doc.Meshes[1].Primitives[0].Attributes
	if _, ok := withoutIDs[AttrObjectIDs]; ok {
		t.Error("mesh without ids should not have TEXCOORD_1")
	}

	if len(doc.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(doc.Materials))
	}
	translucent := doc.Materials[*doc.Meshes[1].Primitives[0].Material]
	if translucent.AlphaMode != gltf.AlphaBlend {
		t.Errorf("expected blended material, got %v", translucent.AlphaMode)
	}

	if len(doc.Images) != 1 || len(doc.Textures) != 1 || len(doc.Samplers) != 1 {
		t.Errorf("expected embedded id-map, got %d images %d textures %d samplers",
			len(doc.Images), len(doc.Textures), len(doc.Samplers))
	}
	if doc.Samplers[0].MagFilter != gltf.MagNearest {
		t.Error("id-map sampler should be nearest")
	}
}

func TestGLTF_NoTexture(t *testing.T) {
	g := NewGLTF()
	m, _ := supermesh.Build("a", triangle("m0", nil), nil, math.Vec3{}, false)
	g.AddMesh(m)

	doc, err := g.Document(1)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(doc.Images) != 0 || len(doc.Textures) != 0 {
		t.Error("no texture expected")
	}
	if doc.Materials[0].PBRMetallicRoughness.BaseColorTexture != nil {
		t.Error("materials should not reference a texture")
	}
}

func TestGLTF_IgnoresOtherParameterMaps(t *testing.T) {
	g := NewGLTF()
	g.UpdateTexture("specular", nil, true)
	if g.Texture() != nil {
		t.Error("only the diffuse map should be kept")
	}
}

func TestGLTF_WriteFiles(t *testing.T) {
	g := NewGLTF()
	sm := buildSupermesh(t, g)
	dir := filepath.Join(t.TempDir(), "out")

	written, err := g.WriteFiles(dir, "model.glb", "idmap.png", sm.Scale())
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 files, got %v", written)
	}

	doc, err := gltf.Open(filepath.Join(dir, "model.glb"))
	if err != nil {
		t.Fatalf("reading back glb: %v", err)
	}
	if len(doc.Meshes) != 2 {
		t.Errorf("expected 2 meshes after round trip, got %d", len(doc.Meshes))
	}

	data, err := os.ReadFile(filepath.Join(dir, "idmap.png"))
	if err != nil {
		t.Fatalf("reading png: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	r, g2, b, a := img.At(0, 0).RGBA()
	if r != 0xFFFF || g2 != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("expected opaque red at (0,0), got %d %d %d %d", r, g2, b, a)
	}
}
