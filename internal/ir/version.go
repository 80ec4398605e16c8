package ir

// Version constants for the command encoding and engine.
const (
	// IRVersion is the canonical command encoding version.
	IRVersion = "1"

	// EngineVersion is the minirel engine version.
	EngineVersion = "0.1.0"
)
