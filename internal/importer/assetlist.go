package importer

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/math"
)

// AssetList is the srcAssets.json document of a model revision.
type AssetList struct {
	Models []ModelAssets `json:"models"`
}

// ModelAssets lists the SRC assets of one model (or federated submodel).
type ModelAssets struct {
	Database string    `json:"database"`
	Model    string    `json:"model"`
	Offset   []float64 `json:"offset"`
	Assets   []string  `json:"assets"`
}

// OffsetVec returns the model offset; missing components are zero.
func (m ModelAssets) OffsetVec() math.Vec3 {
	var c [3]float32
	for i := 0; i < len(m.Offset) && i < 3; i++ {
		c[i] = float32(m.Offset[i])
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}
}

// PlannedAsset is one asset to import with its host-axis offset.
type PlannedAsset struct {
	URI    string
	Offset math.Vec3
}

// ParseAssetList decodes a srcAssets.json document.
func ParseAssetList(data []byte) (*AssetList, error) {
	var l AssetList
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "parsing asset list")
	}
	return &l, nil
}

// Plan flattens the list into assets. The offset of the first model that
// has assets is the world origin; every offset is made relative to it and
// remapped into host axes.
func (l *AssetList) Plan() []PlannedAsset {
	var (
		plan     []PlannedAsset
		world    math.Vec3
		hasWorld bool
	)
	for _, m := range l.Models {
		if len(m.Assets) == 0 {
			continue
		}
		if !hasWorld {
			world = m.OffsetVec()
			hasWorld = true
		}
		offset := math.RemapAxes(m.OffsetVec().Sub(world))
		for _, a := range m.Assets {
			plan = append(plan, PlannedAsset{
				URI:    transport.AssetURI(m.Database, m.Model, a),
				Offset: offset,
			})
		}
	}
	return plan
}

// ModelSettings is the subset of a model's settings document the importer
// reads.
type ModelSettings struct {
	Properties struct {
		Unit string `json:"unit"`
	} `json:"properties"`
}

// ParseModelSettings decodes a model settings document.
func ParseModelSettings(data []byte) (*ModelSettings, error) {
	var s ModelSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parsing model settings")
	}
	return &s, nil
}
