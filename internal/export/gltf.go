// Package export writes a finished supermesh as a binary glTF file and its
// id-map texture as PNG.
package export

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/supermesh/internal/supermesh"
	"github.com/Faultbox/supermesh/pkg/idmap"
)

// Attribute names used for the object channels. TEXCOORD_1 carries the
// (localId, globalId) pair; TEXCOORD_2 is the id-map lookup coordinate of the
// global id, so stock viewers show per-object colours.
const (
	AttrObjectIDs = "TEXCOORD_1"
	AttrObjectUV  = "TEXCOORD_2"
)

// GLTF collects meshes and the id-map texture of a supermesh. It is both a
// supermesh.MeshSink and a supermesh.TextureSink.
type GLTF struct {
	mu      sync.Mutex
	meshes  []*supermesh.Mesh
	byName  map[string]int
	texture *idmap.Texture
}

// NewGLTF creates an empty exporter.
func NewGLTF() *GLTF {
	return &GLTF{byName: make(map[string]int)}
}

// AddMesh records a mesh. A mesh with a known name replaces the old one.
func (g *GLTF) AddMesh(m *supermesh.Mesh) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.byName[m.Name]; ok {
		g.meshes[i] = m
		return
	}
	g.byName[m.Name] = len(g.meshes)
	g.meshes = append(g.meshes, m)
}

// UpdateTexture keeps the latest texture of the diffuse parameter map.
func (g *GLTF) UpdateTexture(name string, tex *idmap.Texture, recreated bool) {
	if name != supermesh.DefaultParameterMap {
		return
	}
	g.mu.Lock()
	g.texture = tex
	g.mu.Unlock()
}

// Texture returns the last texture received, or nil.
func (g *GLTF) Texture() *idmap.Texture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.texture
}

// Document builds the glTF document. All meshes hang below one root node
// carrying the uniform world scale; each mesh node is translated by its
// offset.
func (g *GLTF) Document(scale float32) (*gltf.Document, error) {
	g.mu.Lock()
	meshes := append([]*supermesh.Mesh(nil), g.meshes...)
	tex := g.texture
	g.mu.Unlock()

	doc := gltf.NewDocument()

	var textureIndex *uint32
	if tex != nil && tex.Width > 0 {
		idx, err := writeTexture(doc, tex)
		if err != nil {
			return nil, err
		}
		textureIndex = gltf.Index(idx)
	}
	materials := writeMaterials(doc, textureIndex)

	root := &gltf.Node{
		Name:     "supermesh",
		Scale:    [3]float32{scale, scale, scale},
		Rotation: [4]float32{0, 0, 0, 1},
	}
	doc.Nodes = append(doc.Nodes, root)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	for _, m := range meshes {
		if len(m.Positions) == 0 || len(m.Indices) == 0 {
			continue
		}
		meshIndex := writeMesh(doc, m, tex, materials[m.Material])

		root.Children = append(root.Children, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        m.Name,
			Mesh:        gltf.Index(meshIndex),
			Translation: m.Offset.Array(),
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       [3]float32{1, 1, 1},
		})
	}

	return doc, nil
}

// writeMaterials adds the opaque and translucent prototypes. Both take their
// base colour from the id-map texture when there is one.
func writeMaterials(doc *gltf.Document, texture *uint32) map[supermesh.MaterialVariant]uint32 {
	out := make(map[supermesh.MaterialVariant]uint32, 2)
	for _, v := range []supermesh.MaterialVariant{supermesh.Opaque, supermesh.Translucent} {
		mat := &gltf.Material{
			Name:        v.String(),
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		}
		if v == supermesh.Translucent {
			mat.AlphaMode = gltf.AlphaBlend
		}
		if texture != nil {
			mat.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
				Index:    *texture,
				TexCoord: 2,
			}
		}
		out[v] = uint32(len(doc.Materials))
		doc.Materials = append(doc.Materials, mat)
	}
	return out
}

func writeTexture(doc *gltf.Document, tex *idmap.Texture) (uint32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, tex.Image()); err != nil {
		return 0, errors.Wrap(err, "encoding id-map png")
	}

	image, err := modeler.WriteImage(doc, "idmap", "image/png", &buf)
	if err != nil {
		return 0, errors.Wrap(err, "writing id-map image")
	}

	sampler := uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		Name:      "idmap_sampler",
		MinFilter: gltf.MinNearest,
		MagFilter: gltf.MagNearest,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	})

	index := uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    "idmap",
		Sampler: gltf.Index(sampler),
		Source:  gltf.Index(image),
	})
	return index, nil
}

func writeMesh(doc *gltf.Document, m *supermesh.Mesh, tex *idmap.Texture, material uint32) uint32 {
	attributes := make(map[string]uint32)

	positions := make([][3]float32, len(m.Positions))
	for i, p := range m.Positions {
		positions[i] = p.Array()
	}
	attributes["POSITION"] = modeler.WritePosition(doc, positions)

	if len(m.Normals) == len(m.Positions) {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = n.Array()
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	if len(m.UV0) == len(m.Positions) {
		uvs := make([][2]float32, len(m.UV0))
		for i, uv := range m.UV0 {
			uvs[i] = uv.Array()
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}

	if m.HasObjectIDs() && len(m.ObjectUV) == len(m.Positions) {
		ids := make([][2]float32, len(m.ObjectUV))
		lookup := make([][2]float32, len(m.ObjectUV))
		for i, uv := range m.ObjectUV {
			ids[i] = uv.Array()
			if tex != nil && tex.Width > 0 {
				lookup[i] = idmap.IndexToUV(int(uv.Y), tex.Width).Array()
			}
		}
		attributes[AttrObjectIDs] = modeler.WriteTextureCoord(doc, ids)
		attributes[AttrObjectUV] = modeler.WriteTextureCoord(doc, lookup)
	}

	indices := modeler.WriteIndices(doc, m.Indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Attributes: attributes,
			Material:   gltf.Index(material),
		}},
	})
	return uint32(len(doc.Meshes) - 1)
}

// Encode writes the document as binary glTF.
func (g *GLTF) Encode(w io.Writer, scale float32) error {
	doc, err := g.Document(scale)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(doc), "encoding glb")
}

// WritePNG writes a texture as PNG.
func WritePNG(w io.Writer, tex *idmap.Texture) error {
	return errors.Wrap(png.Encode(w, tex.Image()), "encoding png")
}

// WriteFiles writes <dir>/<gltfName> and, when a texture is available,
// <dir>/<idmapName>. It returns the paths written.
func (g *GLTF) WriteFiles(dir, gltfName, idmapName string, scale float32) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output dir")
	}

	var written []string
	glbPath := filepath.Join(dir, gltfName)
	if err := writeFile(glbPath, func(w io.Writer) error { return g.Encode(w, scale) }); err != nil {
		return written, err
	}
	written = append(written, glbPath)

	if tex := g.Texture(); tex != nil && tex.Width > 0 && idmapName != "" {
		pngPath := filepath.Join(dir, idmapName)
		if err := writeFile(pngPath, func(w io.Writer) error { return WritePNG(w, tex) }); err != nil {
			return written, err
		}
		written = append(written, pngPath)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
