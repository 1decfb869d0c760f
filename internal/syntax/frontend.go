package syntax

// Frontend is the interface every source-language parser implements.
type Frontend interface {
	// Name returns the frontend's short identifier (e.g. "ts", "go").
	Name() string

	// Extensions lists the file extensions (with leading dot) it accepts.
	Extensions() []string

	// Parse turns the contents of one file into a Unit. path is used for
	// positions and diagnostics only.
	Parse(path string, src []byte) (*Unit, error)
}
