package source

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/bugzero/internal/domain"
)

// YAMLLoader reads test cases written either as a bare list of steps or as
// a document with a name and a steps list:
//
//	name: login
//	steps:
//	  - {step: 1, command: OpenURL, value: https://example.com}
type YAMLLoader struct{}

type yamlCase struct {
	Name  string            `yaml:"name"`
	Steps []domain.TestStep `yaml:"steps"`
}

// NewYAMLLoader creates a new YAMLLoader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *YAMLLoader) SupportedExtensions() []string {
	return []string{".yaml", ".yml"}
}

// Load reads the test case at path.
func (l *YAMLLoader) Load(path string) (*domain.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewError("source", path, 0, "test case not found", domain.ErrNotFound)
		}
		return nil, domain.NewError("source", path, 0, "failed to read test case", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, domain.NewError("source", path, 0, "failed to parse YAML", err)
	}

	doc := yamlCase{Name: caseName(path)}
	if len(root.Content) > 0 {
		node := root.Content[0]
		switch node.Kind {
		case yaml.SequenceNode:
			err = node.Decode(&doc.Steps)
		case yaml.MappingNode:
			err = node.Decode(&doc)
		default:
			return nil, domain.NewError("source", path, 0, "expected a list of steps or a mapping with steps", domain.ErrInvalidStep)
		}
		if err != nil {
			return nil, domain.NewError("source", path, 0, "invalid test case", err)
		}
	}
	if doc.Name == "" {
		doc.Name = caseName(path)
	}

	return &domain.TestCase{Name: doc.Name, Source: path, Steps: normalizeSteps(doc.Steps)}, nil
}

func saveYAML(path string, tc *domain.TestCase) error {
	data, err := yaml.Marshal(yamlCase{Name: tc.Name, Steps: renumber(tc.Steps)})
	if err != nil {
		return domain.NewError("source", path, 0, "failed to encode test case", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.NewError("source", path, 0, "failed to write test case", err)
	}
	return nil
}
