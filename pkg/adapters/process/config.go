package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Tool is an allow-listed command that actions may name in their perform field.
type Tool struct {
	Name        string            `yaml:"name"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Environment map[string]string `yaml:"env"`
	Description string            `yaml:"description"`
	// Timeout bounds a single run. Zero means no limit beyond the caller's context.
	Timeout time.Duration `yaml:"timeout"`
}

type toolsFile struct {
	Tools []Tool `yaml:"tools"`
}

// LoadTools reads the tools file and indexes it by name. JSON files are accepted
// since they decode as YAML. A missing file means no tools are configured.
func LoadTools(path string) (map[string]Tool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Tool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	var file toolsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	tools := make(map[string]Tool, len(file.Tools))
	for i, tool := range file.Tools {
		switch {
		case tool.Name == "":
			return nil, fmt.Errorf("tool #%d has no name", i+1)
		case tool.Command == "":
			return nil, fmt.Errorf("tool %q has no command", tool.Name)
		case tool.Timeout < 0:
			return nil, fmt.Errorf("tool %q has a negative timeout", tool.Name)
		}
		if _, dup := tools[tool.Name]; dup {
			return nil, fmt.Errorf("tool %q is defined twice", tool.Name)
		}
		tools[tool.Name] = tool
	}
	return tools, nil
}
