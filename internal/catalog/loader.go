package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// File is the on-disk catalog format.
type File struct {
	Language string                `yaml:"language"`
	Entries  []domain.CatalogEntry `yaml:"entries"`
}

// LoadFile reads and validates a YAML catalog from path.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	cat, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return cat, nil
}

// Decode parses a YAML catalog. Unknown fields are rejected.
func Decode(r io.Reader) (*Memory, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return New(nil)
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(file.Entries)
}
