package ir

// Version constants for the document format and the toolchain.
const (
	// FormatVersion is the persisted document format version.
	FormatVersion = "1"

	// ToolVersion is the scriptblocks release.
	ToolVersion = "0.1.0"
)
