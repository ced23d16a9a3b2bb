package transport

import "path"

// File suffixes of the two documents making up an asset.
const (
	MappingSuffix = ".json.mpc"
	SRCSuffix     = ".src.mpc"
)

// AssetURI returns the base uri of one asset of a model.
func AssetURI(database, model, asset string) string {
	return path.Join(database, model, asset)
}

// MappingURI returns the uri of an asset's mapping sidecar.
func MappingURI(asset string) string {
	return asset + MappingSuffix
}

// SRCURI returns the uri of an asset's SRC container.
func SRCURI(asset string) string {
	return asset + SRCSuffix
}

// RevisionAssetsURI returns the uri of the asset list of a model revision.
// An empty revision means the head of master.
func RevisionAssetsURI(teamspace, model, revision string) string {
	if revision == "" {
		return path.Join(teamspace, model, "revision", "master", "head", "srcAssets.json")
	}
	return path.Join(teamspace, model, "revision", revision, "srcAssets.json")
}

// ModelSettingsURI returns the uri of a model's settings document.
func ModelSettingsURI(teamspace, model string) string {
	return path.Join(teamspace, model) + ".json"
}
