// Package mapping parses the JSON sidecar that accompanies an SRC container
// and resolves it against a shared object registry: local mapping rows become
// global object ids, appearances become materials, and each object's diffuse
// colour is pushed to a parameter sink.
package mapping

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/supermesh/pkg/math"
)

// Errors reported for individual rows. Neither aborts the resolution.
var (
	ErrMalformedValue   = errors.New("mapping: malformed value")
	ErrMappingReference = errors.New("mapping: unknown appearance")
)

// Mapping is the sidecar document.
type Mapping struct {
	NumberOfIDs int          `json:"numberOfIDs"`
	Mapping     []Row        `json:"mapping"`
	Appearance  []Appearance `json:"appearance"`
}

// Row maps one local id (the row index) to a persistent object name and an
// appearance.
type Row struct {
	Name       string `json:"Name"`
	Appearance string `json:"appearance"`
}

// Appearance is a named material definition.
type Appearance struct {
	Name     string       `json:"name"`
	Material MaterialSpec `json:"material"`
}

// MaterialSpec holds the material fields as they appear in the document.
// Colours are whitespace-separated float triples; transparency is a numeric
// string (plain JSON numbers are accepted too).
type MaterialSpec struct {
	DiffuseColor  string          `json:"diffuseColor"`
	SpecularColor string          `json:"specularColor,omitempty"`
	Transparency  json.RawMessage `json:"transparency,omitempty"`
}

// Material is a parsed appearance.
type Material struct {
	Name         string
	Diffuse      math.Vec3
	Specular     math.Vec3
	HasSpecular  bool
	Transparency float32
}

// Color returns the diffuse colour with alpha = 1 - transparency.
func (m Material) Color() math.Vec4 {
	return math.RGBA(m.Diffuse.X, m.Diffuse.Y, m.Diffuse.Z, 1-m.Transparency)
}

// Translucent reports whether the material needs a translucent render path.
func (m Material) Translucent() bool {
	return m.Transparency != 0
}

// Parse decodes a sidecar document.
func Parse(data []byte) (*Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing mapping json")
	}
	return &m, nil
}

// ParseColor reads the first three whitespace-separated floats of s.
func ParseColor(s string) (math.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return math.Vec3{}, errors.Wrapf(ErrMalformedValue, "colour %q: expected 3 components, got %d", s, len(fields))
	}

	var c [3]float32
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, errors.Wrapf(ErrMalformedValue, "colour %q: component %d: %v", s, i, err)
		}
		c[i] = float32(v)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseTransparency accepts a numeric string, a number, or nothing (zero).
func parseTransparency(raw json.RawMessage) (float32, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, errors.Wrapf(ErrMalformedValue, "transparency %s: %v", raw, err)
		}
		text = strings.TrimSpace(text)
	}

	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedValue, "transparency %s: %v", raw, err)
	}
	return float32(v), nil
}

// ParseMaterial converts one appearance entry.
func ParseMaterial(a Appearance) (Material, error) {
	m := Material{Name: a.Name}

	diffuse, err := ParseColor(a.Material.DiffuseColor)
	if err != nil {
		return m, errors.Wrapf(err, "appearance %q diffuseColor", a.Name)
	}
	m.Diffuse = diffuse

	if a.Material.SpecularColor != "" {
		specular, err := ParseColor(a.Material.SpecularColor)
		if err != nil {
			return m, errors.Wrapf(err, "appearance %q specularColor", a.Name)
		}
		m.Specular = specular
		m.HasSpecular = true
	}

	m.Transparency, err = parseTransparency(a.Material.Transparency)
	if err != nil {
		return m, errors.Wrapf(err, "appearance %q", a.Name)
	}

	return m, nil
}
