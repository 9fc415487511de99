// Package manifest loads and resolves the trusted release manifest:
// the mapping from canonical platform keys to artifact descriptors.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/luminahq/lumina-install/internal/platform"
	"github.com/luminahq/lumina-install/internal/verify"
)

// Descriptor names one downloadable artifact and its expected digest.
type Descriptor struct {
	URL  string `yaml:"url"`
	Hash string `yaml:"hash"`
}

// Release describes how to discover newer versions, see the release
// package.
type Release struct {
	FeedURL  string `yaml:"feedUrl"`
	JSONPath string `yaml:"jsonPath"`
	Prefix   string `yaml:"prefix"`
}

// Manifest is the published artifact index for one release.
type Manifest struct {
	Version   string                `yaml:"version"`
	Installer map[string]Descriptor `yaml:"installer"`
	Service   map[string]Descriptor `yaml:"service"`
	Release   Release               `yaml:"release"`
}

// Entry holds the descriptors resolved for one platform key. Either
// field may be nil: platform support is partial and absence is a
// normal state, not an error.
type Entry struct {
	Installer *Descriptor
	Service   *Descriptor
}

// Resolve looks up the artifact descriptors for the given key. It is a
// pure lookup; callers branch on nil fields.
func Resolve(m *Manifest, key platform.Key) Entry {
	var entry Entry
	if d, ok := m.Installer[key.String()]; ok {
		entry.Installer = &d
	}
	if d, ok := m.Service[key.String()]; ok {
		entry.Service = &d
	}
	return entry
}

// Load reads a manifest document, validates it against the manifest
// schema and normalizes all digests.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a manifest from a file.
func LoadFile(name string) (*Manifest, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return Load(file)
}

// Parse decodes and validates raw manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	var m Manifest
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	for key, d := range m.Installer {
		d.Hash = verify.Normalize(d.Hash)
		m.Installer[key] = d
	}
	for key, d := range m.Service {
		d.Hash = verify.Normalize(d.Hash)
		m.Service[key] = d
	}

	return &m, nil
}

const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "installer": {"$ref": "#/$defs/artifacts"},
    "service": {"$ref": "#/$defs/artifacts"},
    "release": {
      "type": "object",
      "properties": {
        "feedUrl": {"type": "string"},
        "jsonPath": {"type": "string"},
        "prefix": {"type": "string"}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false,
  "$defs": {
    "artifacts": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "url": {"type": "string", "minLength": 1},
          "hash": {"type": "string", "pattern": "^(sha256:)?[0-9a-fA-F]{64}$"}
        },
        "required": ["url", "hash"],
        "additionalProperties": false
      }
    }
  }
}`

func validate(doc any) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaSource))
	if err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("manifest.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	return schema.Validate(doc)
}
