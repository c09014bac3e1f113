// Package specs embeds the built-in GmlSpec.xml catalog.
package specs

import (
	"bytes"
	_ "embed"

	"github.com/jward/feather/internal/project"
)

//go:embed GmlSpec.xml
var gmlSpec []byte

// Default decodes the embedded catalog.
func Default() (*project.Spec, error) {
	return project.ParseSpec(bytes.NewReader(gmlSpec))
}
