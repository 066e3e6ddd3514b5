package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a content package.
type Format string

// Supported package encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the package encoding from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParsePackage decodes a content package.
func ParsePackage(data []byte, format Format) (Package, error) {
	var pkg Package
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &pkg); err != nil {
			return Package{}, fmt.Errorf("parse yaml package: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&pkg); err != nil {
			return Package{}, fmt.Errorf("parse json package: %w", err)
		}
	default:
		return Package{}, fmt.Errorf("unsupported package format %q", format)
	}
	return pkg, nil
}

// ReadPackage reads and decodes a content package from r.
func ReadPackage(r io.Reader, format Format) (Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Package{}, fmt.Errorf("read package: %w", err)
	}
	return ParsePackage(data, format)
}

// ReadPackageFile reads a content package from a JSON or YAML file.
func ReadPackageFile(path string) (Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Package{}, err
	}
	return ParsePackage(data, FormatFromPath(path))
}
