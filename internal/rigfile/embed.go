package rigfile

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed humanoid.yaml
var humanoidYAML []byte

// DefaultName is the rig used when no rig file is given.
const DefaultName = "humanoid"

// Default returns the built-in mixamo-named humanoid.
func Default() (*Rig, error) {
	rig, err := Parse(humanoidYAML)
	if err != nil {
		return nil, fmt.Errorf("rigfile: default rig: %w", err)
	}
	return rig, nil
}

// LoadOrDefault loads path, or the built-in humanoid when path is empty.
func LoadOrDefault(path string) (*Rig, error) {
	if path == "" || path == DefaultName {
		return Default()
	}
	return Load(path)
}

// WriteDefault writes the built-in humanoid to path so it can be edited.
func WriteDefault(path string) error {
	if err := os.WriteFile(path, humanoidYAML, 0o644); err != nil {
		return fmt.Errorf("rigfile: write default rig: %w", err)
	}
	return nil
}
