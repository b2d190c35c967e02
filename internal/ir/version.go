package ir

// Version constants for the asset schema and engine.
const (
	// AssetVersion is the compiled asset schema version.
	AssetVersion = "1"

	// EngineVersion is the comboseq engine version.
	EngineVersion = "0.1.0"
)
