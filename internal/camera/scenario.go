package camera

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WritePath persists the path that produced a video next to the asset, so a
// clip's motion can be inspected or re-rendered later.
func WritePath(filename string, p Path) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ReadPath loads a previously persisted path and validates it.
func ReadPath(filename string) (Path, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Path{}, err
	}

	var p Path
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Path{}, fmt.Errorf("camera: parse %s: %w", filename, err)
	}
	if err := p.Validate(); err != nil {
		return Path{}, err
	}
	return p, nil
}
