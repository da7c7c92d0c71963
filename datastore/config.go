package datastore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ProjectConfig is a copick project configuration (copick_config.json).
// Fields not used by the server, e.g., fsspec arguments, are ignored.
type ProjectConfig struct {
	Name            string           `json:"name,omitempty"`
	Description     string           `json:"description,omitempty"`
	Version         string           `json:"version,omitempty"`
	ConfigType      string           `json:"config_type,omitempty"`
	OverlayRoot     string           `json:"overlay_root"`
	StaticRoot      string           `json:"static_root,omitempty"`
	PickableObjects []PickableObject `json:"pickable_objects,omitempty"`
	UserID          string           `json:"user_id,omitempty"`
	SessionID       string           `json:"session_id,omitempty"`
}

// PickableObject is an object type that may be picked or segmented.
type PickableObject struct {
	Name         string   `json:"name"`
	IsParticle   bool     `json:"is_particle"`
	Label        int      `json:"label,omitempty"`
	Color        []int    `json:"color,omitempty"`
	Radius       *float64 `json:"radius,omitempty"`
	PDBID        string   `json:"pdb_id,omitempty"`
	EMDBID       string   `json:"emdb_id,omitempty"`
	Identifier   string   `json:"identifier,omitempty"`
	MapThreshold *float64 `json:"map_threshold,omitempty"`
}

const projectConfigSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"description": {"type": "string"},
		"version": {"type": "string"},
		"config_type": {"enum": ["filesystem"]},
		"overlay_root": {"type": "string", "minLength": 1},
		"static_root": {"type": ["string", "null"]},
		"user_id": {"type": ["string", "null"]},
		"session_id": {"type": ["string", "null"]},
		"pickable_objects": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string", "minLength": 1, "pattern": "^[^_/]+$"},
					"is_particle": {"type": "boolean"},
					"label": {"type": "integer", "minimum": 0},
					"color": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 255}, "minItems": 3, "maxItems": 4},
					"radius": {"type": ["number", "null"]},
					"pdb_id": {"type": ["string", "null"]},
					"emdb_id": {"type": ["string", "null"]},
					"identifier": {"type": ["string", "null"]},
					"map_threshold": {"type": ["number", "null"]}
				},
				"required": ["name", "is_particle"]
			}
		}
	},
	"required": ["overlay_root"]
}`

var projectSchema = jsonschema.MustCompileString("copick_config.schema.json", projectConfigSchema)

// ParseProjectConfig validates and decodes a copick project configuration.
func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project configuration is not valid JSON: %v", err)
	}
	if err := projectSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid project configuration: %v", err)
	}
	var config ProjectConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to decode project configuration: %v", err)
	}
	if config.ConfigType == "" {
		config.ConfigType = "filesystem"
	}
	seen := make(map[string]struct{}, len(config.PickableObjects))
	for _, obj := range config.PickableObjects {
		if _, found := seen[obj.Name]; found {
			return nil, fmt.Errorf("pickable object %q defined more than once", obj.Name)
		}
		seen[obj.Name] = struct{}{}
	}
	return &config, nil
}

// LoadProjectConfig reads a copick project configuration file.
func LoadProjectConfig(filename string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read project configuration %q: %v", filename, err)
	}
	return ParseProjectConfig(data)
}

// PickableObject returns the named object and whether it was found.
func (c *ProjectConfig) PickableObject(name string) (PickableObject, bool) {
	for _, obj := range c.PickableObjects {
		if obj.Name == name {
			return obj, true
		}
	}
	return PickableObject{}, false
}
