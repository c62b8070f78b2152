package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported catalog file extension: %q", filepath.Ext(path))
}

// Decode reads a list of sections in the given format and builds a validated Catalog.
func Decode(r io.Reader, format Format) (*Catalog, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read catalog: %w", err)
	}

	var sections []Section
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &sections)
	case FormatJSON:
		err = json.Unmarshal(data, &sections)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("Couldn't decode %v catalog: %w", format, err)
	}

	return New(sections)
}

// LoadFile loads a catalog file from fs. The format is derived from the file extension.
func LoadFile(fs afero.Fs, path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open catalog file: %w", err)
	}
	defer file.Close()
	return Decode(file, format)
}
