package gncoleta

var (
	// Version of gncoleta, set by the linker during release builds.
	Version = "v0.1.0"

	// Build timestamp, set by the linker.
	Build = "n/a"
)
