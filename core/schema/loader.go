package schema

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

// Format identifies the encoding of a catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Catalog is the set of resource declarations an application exposes.
type Catalog struct {
	Resources []ResourceDefinition `json:"resources" yaml:"resources"`
}

// Resource returns the declaration named name.
func (c *Catalog) Resource(name string) (*ResourceDefinition, bool) {
	for i := range c.Resources {
		if c.Resources[i].Name == name {
			return &c.Resources[i], true
		}
	}
	return nil, false
}

// CatalogError reports invalid declarations found while loading a catalog.
type CatalogError struct {
	Resource string
	Issues   []Issue
}

func (e *CatalogError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = fmt.Sprintf("%s (%s)", issue.Message, issue.Path)
	}
	return fmt.Sprintf("invalid resource '%s': %s", e.Resource, strings.Join(msgs, "; "))
}

// LoadCatalog decodes and validates a catalog from r.
func LoadCatalog(r io.Reader, format Format) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog Catalog
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&catalog); err != nil {
			return nil, fmt.Errorf("failed to decode JSON catalog: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&catalog); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode YAML catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}

	seen := make(map[string]struct{}, len(catalog.Resources))
	for i := range catalog.Resources {
		def := &catalog.Resources[i]
		if issues := Validate(def); len(issues) > 0 {
			return nil, &CatalogError{Resource: def.Name, Issues: issues}
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("resource '%s' is declared more than once", def.Name)
		}
		seen[def.Name] = struct{}{}
	}
	return &catalog, nil
}

// LoadCatalogFile loads a catalog, picking the decoder from the file extension.
func LoadCatalogFile(path string) (*Catalog, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("cannot infer catalog format from '%s'", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f, format)
}
