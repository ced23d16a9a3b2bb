package src

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Header is the JSON document embedded after the preamble. It is parsed and
// checked once; optional fields are resolved to their zero values here so
// the resolver never has to test for their presence.
type Header struct {
	Accessors    Accessors              `json:"accessors"`
	BufferViews  map[string]BufferView  `json:"bufferViews"`
	BufferChunks map[string]BufferChunk `json:"bufferChunks"`
	Meshes       MeshTable              `json:"meshes"`
}

// Accessors groups the named view descriptors.
type Accessors struct {
	IndexViews     map[string]IndexView     `json:"indexViews"`
	AttributeViews map[string]AttributeView `json:"attributeViews"`
}

// IndexView describes a run of uint16 triangle indices inside a chunk.
type IndexView struct {
	BufferView    string `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	Count         int    `json:"count"`
	ComponentType int    `json:"componentType"`
}

// AttributeView describes a run of fixed-stride vertex attributes inside a
// chunk. ComponentType and Type are informational; the stride is what the
// resolver checks against the requested element type.
type AttributeView struct {
	BufferView    string `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ByteStride    int    `json:"byteStride"`
	Count         int    `json:"count"`
	ComponentType int    `json:"componentType"`
	Type          string `json:"type"`
}

// BufferView lists the chunks backing a view. Only single-chunk views are
// supported.
type BufferView struct {
	Chunks []string `json:"chunks"`
}

// BufferChunk is a contiguous byte range of the (decompressed) payload.
type BufferChunk struct {
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

// MeshAttributes names the attribute views of one mesh. An empty name means
// the channel is absent.
type MeshAttributes struct {
	Position string `json:"position"`
	Normal   string `json:"normal"`
	TexCoord string `json:"texcoord"`
	ID       string `json:"id"`
}

// MeshEntry is one named sub-mesh of the container.
type MeshEntry struct {
	Name       string         `json:"-"`
	Indices    string         `json:"indices"`
	Attributes MeshAttributes `json:"attributes"`
}

// MeshTable holds the header meshes in document order.
type MeshTable []MeshEntry

// UnmarshalJSON decodes the "meshes" object while keeping the key order of
// the document, which is the order meshes are emitted in.
func (t *MeshTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("meshes: expected object, got %v", tok)
	}

	var meshes MeshTable
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.Errorf("meshes: expected key, got %v", tok)
		}

		var entry MeshEntry
		if err := dec.Decode(&entry); err != nil {
			return errors.Wrapf(err, "mesh %q", name)
		}
		entry.Name = name
		meshes = append(meshes, entry)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = meshes
	return nil
}

// MarshalJSON encodes the table as a JSON object in table order.
func (t MeshTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseHeader decodes and sanity-checks the embedded header.
func parseHeader(data []byte) (*Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, errors.Wrapf(ErrFormatViolation, "header json: %v", err)
	}

	for name, chunk := range h.BufferChunks {
		if chunk.ByteOffset < 0 || chunk.ByteLength < 0 {
			return nil, errors.Wrapf(ErrFormatViolation,
				"chunk %q has negative range (offset %d, length %d)", name, chunk.ByteOffset, chunk.ByteLength)
		}
	}

	return &h, nil
}
