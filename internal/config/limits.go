package config

const (
	// MaxWorkspaceNameLength is the maximum length for workspace names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxWorkspaceNameLength = 255

	// MaxExpressionLength is the maximum length of expression text accepted
	// from a host. Longer text is rejected before it reaches the parser.
	MaxExpressionLength = 4096

	// MaxPaletteItems caps each operator and function palette.
	MaxPaletteItems = 64

	// MaxVariables caps the variable palette.
	MaxVariables = 256

	// MaxConstants caps the constant palette.
	MaxConstants = 256

	// MaxRequestBodyBytes caps JSON request bodies.
	MaxRequestBodyBytes = 1 << 20

	// MaxLogFiles is how many server log files SetupLogFile keeps.
	MaxLogFiles = 10
)
