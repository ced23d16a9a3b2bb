package mapping

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/pkg/math"
)

// Registry assigns stable global ids to object names. Add is lookup-or-insert
// and must be safe for concurrent use when assets resolve in parallel.
type Registry interface {
	Add(name string) uint32
}

// ParameterSink receives the per-object appearance parameter of every row.
type ParameterSink interface {
	SetParameter(globalID uint32, value math.Vec4)
}

// Result is the outcome of resolving one asset's mapping.
type Result struct {
	// LocalToGlobal has one entry per mapping row: the global id the row's
	// name resolved to.
	LocalToGlobal []uint32

	// Materials are keyed by appearance name.
	Materials map[string]Material

	// Translucent is true when any material has nonzero transparency.
	Translucent bool

	// Skipped collects the appearances and rows that could not be used.
	Skipped []error
}

// Resolve registers every row with the registry, parses the appearances and
// emits each row's colour to sink (which may be nil).
//
// Rows are never dropped from LocalToGlobal, so local ids stay aligned with
// row indices. A malformed appearance is left out of Materials; a row naming
// an unknown or malformed appearance gets no parameter.
func Resolve(m *Mapping, registry Registry, sink ParameterSink, log *zap.Logger) (*Result, error) {
	if m == nil {
		return nil, errors.New("resolve: nil mapping")
	}
	if registry == nil {
		return nil, errors.New("resolve: nil registry")
	}
	if log == nil {
		log = zap.NewNop()
	}

	if m.NumberOfIDs != len(m.Mapping) {
		log.Warn("numberOfIDs does not match mapping rows",
			zap.Int("numberOfIDs", m.NumberOfIDs),
			zap.Int("rows", len(m.Mapping)))
	}

	res := &Result{
		LocalToGlobal: make([]uint32, len(m.Mapping)),
		Materials:     make(map[string]Material, len(m.Appearance)),
	}

	for i, row := range m.Mapping {
		if row.Name == "" {
			log.Warn("mapping row without name", zap.Int("row", i))
		}
		res.LocalToGlobal[i] = registry.Add(row.Name)
	}

	for _, a := range m.Appearance {
		material, err := ParseMaterial(a)
		if err != nil {
			log.Warn("skipping appearance", zap.String("appearance", a.Name), zap.Error(err))
			res.Skipped = append(res.Skipped, err)
			continue
		}
		res.Materials[a.Name] = material
		if material.Translucent() {
			res.Translucent = true
		}
	}

	for i, row := range m.Mapping {
		material, ok := res.Materials[row.Appearance]
		if !ok {
			err := errors.Wrapf(ErrMappingReference, "row %d (%q) references appearance %q", i, row.Name, row.Appearance)
			log.Warn("skipping mapping row", zap.Error(err))
			res.Skipped = append(res.Skipped, err)
			continue
		}
		if sink != nil {
			sink.SetParameter(res.LocalToGlobal[i], material.Color())
		}
	}

	return res, nil
}
