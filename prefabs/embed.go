package prefabs

import (
	"embed"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed *.yaml scripts/*.tengo
var files embed.FS

// Dir is checked for edited copies before the embedded files are used.
var Dir = "prefabs"

// Load reads a prefab by its path inside the prefabs tree, e.g. "things.yaml"
// or "scripts/Signs.tengo". A leading "prefabs/" is ignored.
func Load(name string) ([]byte, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "prefabs/"))
	if data, err := os.ReadFile(filepath.Join(Dir, filepath.FromSlash(clean))); err == nil {
		return data, nil
	}
	return files.ReadFile(clean)
}

// LoadScript reads a cutscene script. Bare names resolve under scripts/.
func LoadScript(name string) ([]byte, error) {
	s := strings.TrimPrefix(filepath.ToSlash(name), "prefabs/")
	s = strings.TrimPrefix(s, "scripts/")
	return Load("scripts/" + s)
}
