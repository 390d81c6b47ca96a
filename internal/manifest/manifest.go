// Package manifest reads, writes, and validates the aipseo.json project
// manifest that identifies a site integration to the marketplace.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"aipseo/pkg/apperror"
)

// DefaultPath is the conventional manifest location in a project root.
const DefaultPath = "aipseo.json"

const minToolIDLength = 8

var validate = validator.New()

// Manifest is the typed form written by `aipseo init`. Validation of files
// read from disk goes through Check instead, so a hand-edited manifest with
// the wrong shape produces field-level findings rather than a decode error.
type Manifest struct {
	ToolID    string         `json:"tool_id" validate:"required,min=8"`
	Version   string         `json:"version" validate:"required"`
	Settings  map[string]any `json:"settings,omitempty"`
	Endpoints []string       `json:"endpoints,omitempty"`
}

// New returns a starter manifest with a generated tool id.
func New() Manifest {
	return Manifest{
		ToolID:  "tool_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Version: "0.1.0",
		Settings: map[string]any{
			"default_format": "json",
		},
	}
}

// Write stores the manifest as indented JSON. An existing file is refused
// unless force is set.
func (m Manifest) Write(path string, force bool) error {
	if err := validate.Struct(m); err != nil {
		return apperror.ErrValidation(err.Error())
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return apperror.ErrAlreadyExists(path)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperror.InternalError(err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return apperror.InternalError(err)
	}
	return nil
}

// Load reads a manifest file into its typed form. Callers that need
// field-level findings for malformed files should run Check first.
func Load(path string) (Manifest, error) {
	var m Manifest

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, apperror.ErrValidation(fmt.Sprintf("manifest file %q not found", path))
		}
		return m, apperror.InternalError(err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, apperror.ErrValidation(fmt.Sprintf("manifest file %q is not valid JSON", path))
	}
	return m, nil
}

// Check validates a manifest file and returns every finding. A missing or
// unparseable file is an error; a parseable file with schema problems returns
// the findings with a nil error.
func Check(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.ErrValidation(fmt.Sprintf("manifest file %q not found", path))
		}
		return nil, apperror.InternalError(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.ErrValidation(fmt.Sprintf("manifest file %q is not valid JSON", path))
	}

	return checkSchema(doc), nil
}

func checkSchema(doc map[string]any) []string {
	var findings []string

	for _, field := range []string{"tool_id", "version"} {
		if _, ok := doc[field]; !ok {
			findings = append(findings, fmt.Sprintf("missing required field %q", field))
		}
	}

	if v, ok := doc["tool_id"]; ok {
		s, isStr := v.(string)
		if !isStr || len(s) < minToolIDLength {
			findings = append(findings, fmt.Sprintf("invalid tool_id: must be a string of at least %d characters", minToolIDLength))
		}
	}

	if v, ok := doc["version"]; ok {
		if _, isStr := v.(string); !isStr {
			findings = append(findings, "invalid version: must be a string")
		}
	}

	if v, ok := doc["settings"]; ok {
		if _, isObj := v.(map[string]any); !isObj {
			findings = append(findings, "invalid settings: must be an object")
		}
	}

	if v, ok := doc["endpoints"]; ok {
		if _, isArr := v.([]any); !isArr {
			findings = append(findings, "invalid endpoints: must be an array")
		}
	}

	return findings
}
