package supermesh

import (
	"sync"

	"github.com/Faultbox/supermesh/internal/logger"
	"github.com/Faultbox/supermesh/pkg/idmap"
	"github.com/Faultbox/supermesh/pkg/math"
	"go.uber.org/zap"
)

// TextureSink receives the id-map texture of a parameter map after every
// update. recreated is true when the texture had to grow, so a GPU-side
// resource must be reallocated rather than rewritten.
//
// The texture passed to the sink is a snapshot owned by the sink.
type TextureSink interface {
	UpdateTexture(name string, tex *idmap.Texture, recreated bool)
}

// ParameterMap holds one 4-float parameter per global object id and keeps an
// id-map texture of the whole table.
type ParameterMap struct {
	name     string
	registry *Registry
	fallback math.Vec4

	mu     sync.Mutex
	values []math.Vec4
	dirty  bool
	tex    idmap.Texture
	sinks  []TextureSink
}

// NewParameterMap creates a parameter map. Objects without an explicit
// parameter use fallback.
func NewParameterMap(name string, registry *Registry, fallback math.Vec4) *ParameterMap {
	return &ParameterMap{
		name:     name,
		registry: registry,
		fallback: fallback,
	}
}

// Name returns the map's name.
func (p *ParameterMap) Name() string {
	return p.name
}

// AddSink registers a texture consumer.
func (p *ParameterMap) AddSink(s TextureSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// SetParameter sets the parameter of a global id, growing the table as needed.
func (p *ParameterMap) SetParameter(globalID uint32, value math.Vec4) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.grow(int(globalID) + 1)
	p.values[globalID] = value
	p.dirty = true
}

// SetParameterByName sets the parameter of a registered object id. It
// returns false when the name is unknown.
func (p *ParameterMap) SetParameterByName(objectID string, value math.Vec4) bool {
	id, ok := p.registry.Find(objectID)
	if !ok {
		return false
	}
	p.SetParameter(id, value)
	return true
}

// Parameter returns the parameter of a global id. Ids beyond the table but
// known to the registry report the fallback.
func (p *ParameterMap) Parameter(globalID uint32) (math.Vec4, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(globalID) < len(p.values) {
		return p.values[globalID], true
	}
	if int(globalID) < p.registry.Len() {
		return p.fallback, true
	}
	return math.Vec4{}, false
}

// ParameterByName returns the parameter of a registered object id.
func (p *ParameterMap) ParameterByName(objectID string) (math.Vec4, bool) {
	id, ok := p.registry.Find(objectID)
	if !ok {
		return math.Vec4{}, false
	}
	return p.Parameter(id)
}

// Len returns the number of slots in the table.
func (p *ParameterMap) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.values)
}

// Texture returns a snapshot of the current id-map texture.
func (p *ParameterMap) Texture() *idmap.Texture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Update re-encodes the whole table when it changed since the last update,
// or unconditionally when force is set, and notifies every sink. The table
// is first extended so each registered object owns a slot. It reports
// whether an encode happened.
func (p *ParameterMap) Update(force bool) bool {
	p.mu.Lock()
	if n := p.registry.Len(); n > len(p.values) {
		p.grow(n)
		p.dirty = true
	}
	if !p.dirty && !force {
		p.mu.Unlock()
		return false
	}

	recreated := p.tex.Encode(p.values)
	p.dirty = false
	snap := p.snapshot()
	sinks := append([]TextureSink(nil), p.sinks...)
	p.mu.Unlock()

	logger.Debug("parameter map updated",
		zap.String("map", p.name),
		zap.Int("parameters", len(snap.Pixels)),
		zap.Int("width", snap.Width),
		zap.Bool("recreated", recreated))

	for _, s := range sinks {
		s.UpdateTexture(p.name, snap, recreated)
	}
	return true
}

// grow extends the table to n slots filled with the fallback.
func (p *ParameterMap) grow(n int) {
	for len(p.values) < n {
		p.values = append(p.values, p.fallback)
	}
}

func (p *ParameterMap) snapshot() *idmap.Texture {
	pixels := make([]uint32, len(p.tex.Pixels))
	copy(pixels, p.tex.Pixels)
	return &idmap.Texture{Width: p.tex.Width, Pixels: pixels}
}
