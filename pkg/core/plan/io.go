package plan

import (
	"encoding/json"
	"fmt"
	"os"
)

// Marshal serializes a Plan to pretty-printed JSON.
func Marshal(p Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Unmarshal parses and validates a Plan.
func Unmarshal(data []byte) (Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// WriteFile writes a Plan as JSON to path.
func WriteFile(p Plan, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Plan from a JSON file.
func ReadFile(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
