package rigfile

import (
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// Targets maps chain names to world positions:
//
//	leftArm: [0.4, 1.5, 0.3]
//	head: [0, 1.8, 0.5]
type Targets map[string]Vec3

func LoadTargets(path string) (map[string]rl.Vector3, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rigfile: load targets %s: %w", path, err)
	}
	targets, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("rigfile: targets %s: %w", path, err)
	}
	return targets, nil
}

func ParseTargets(data []byte) (map[string]rl.Vector3, error) {
	var t Targets
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	return toPositions(t), nil
}
