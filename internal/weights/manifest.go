// Package weights provisions the pre-trained model files the face engine
// loads at startup. The engine expects each file at an exact path under its
// weights directory; anything else makes the model load fail.
package weights

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var embeddedManifest []byte

//go:embed manifest.schema.json
var manifestSchema []byte

// mirrorEnvPrefix + uppercased model name overrides the download URL for a
// single model, e.g. FACEGATE_MIRROR_ARCFACE. This replaces the old habit of
// sed-patching download URLs into the engine's installed source.
const mirrorEnvPrefix = "FACEGATE_MIRROR_"

// WeightFile is one pre-trained model file. The blob itself is opaque; only
// its on-disk location matters to us.
type WeightFile struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"` // relative to the weights directory, fixed by the engine
	URL  string `yaml:"url"`
}

// Manifest lists every weight file the engine needs.
type Manifest struct {
	Models []WeightFile `yaml:"models"`
}

// DefaultManifest parses the embedded manifest. The embedded file is part of
// the binary, so a parse failure is a build defect.
func DefaultManifest() *Manifest {
	m, err := parseManifest(embeddedManifest)
	if err != nil {
		panic("embedded weights manifest is invalid: " + err.Error())
	}
	return m
}

// LoadManifest reads a manifest from path, validating it against the schema
// first. An empty path returns the embedded default.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	if err := validateManifest(raw); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return parseManifest(raw)
}

func parseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Models) == 0 {
		return nil, fmt.Errorf("manifest lists no models")
	}
	return &m, nil
}

// validateManifest checks raw YAML against the embedded JSON schema.
func validateManifest(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.schema.json", bytes.NewReader(manifestSchema)); err != nil {
		return fmt.Errorf("load manifest schema: %w", err)
	}
	schema, err := compiler.Compile("manifest.schema.json")
	if err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}

	if err := schema.Validate(normalizeYAML(doc)); err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}
	return nil
}

// normalizeYAML converts yaml.v3 map[string]any trees into the shape the
// schema validator expects. yaml.v3 already decodes mappings with string
// keys, but nested values may need the same treatment recursively.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// DownloadURL returns the effective URL for a weight file, honoring a
// per-model mirror override from the environment.
func (w *WeightFile) DownloadURL() string {
	key := mirrorEnvPrefix + strings.ToUpper(strings.ReplaceAll(w.Name, "-", "_"))
	if mirror := os.Getenv(key); mirror != "" {
		return mirror
	}
	return w.URL
}

// Lookup returns the weight file with the given name, or nil.
func (m *Manifest) Lookup(name string) *WeightFile {
	for i := range m.Models {
		if m.Models[i].Name == name {
			return &m.Models[i]
		}
	}
	return nil
}
