package catalog

import (
	_ "embed"
)

// Default catalog shipped with the binary so the pipeline works offline.
// An external catalog file, when configured, replaces it wholesale.
//
//go:embed data.yaml
var embeddedCatalog []byte

// Default returns the embedded capability catalog.
func Default() (*InMemory, error) {
	return Parse(embeddedCatalog)
}
