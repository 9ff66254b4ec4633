package main

// Server identity constants
const (
	// MCP server name exposed to tool clients
	ServerName = "debrief-bridge"
	// Server version following semantic versioning
	ServerVersion = "1.0.0"
)

// Bridge network defaults
const (
	// Default WebSocket bridge port; clients expect this fixed port
	DefaultBridgePort = 60123
	// Default bind host; the bridge serves local clients only
	DefaultBridgeHost = "127.0.0.1"
)

// Wire error codes
const (
	// Malformed parameters or failed validation
	CodeInvalidInput = 400
	// Target document or file is not open
	CodeNotFound = 404
	// Unexpected handler failure; detail stays server-side
	CodeInternal = 500
	// Sentinel code asking the caller to disambiguate the target plot
	CodeMultiplePlots = "MULTIPLE_PLOTS"
)

// Feature classification values carried in properties.featureType
const (
	FeatureTypeTrack      = "track"
	FeatureTypePoint      = "point"
	FeatureTypeAnnotation = "annotation"
	FeatureTypeUnknown    = "unknown"
)

// User-facing messages
const (
	NoPlotsOpenMsg   = "No plot files are currently open"
	MultiplePlotsMsg = "Multiple plot files are open. Specify a filename to select one."
	WelcomeResult    = "connected"
	EchoPrefix       = "Echo: "
)

// CLI messages
const (
	PromptStr  = "bridge> "
	WelcomeMsg = "=== Debrief Bridge Test Mode ==="
	HelpMsg    = "Commands: plots | get [file] | set-selection <id...> | selection | add <lon> <lat> | delete <id...> | time | viewport | notify <msg> | exit"
)
