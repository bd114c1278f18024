package harness

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var schemaSource string

// SchemaError is one CUE schema violation in a scenario document.
type SchemaError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidateScenarioFile checks a scenario file against the embedded CUE
// schema. A nil slice means the document conforms.
func ValidateScenarioFile(path string) ([]SchemaError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ValidateScenarioBytes(data)
}

// ValidateScenarioBytes checks scenario YAML against the embedded CUE
// schema. Schema violations come back as SchemaErrors; only infrastructure
// failures (unreadable YAML, a broken embedded schema) become a real error.
func ValidateScenarioBytes(data []byte) ([]SchemaError, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling scenario schema: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("encoding scenario document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var out []SchemaError
		for _, e := range cueerrors.Errors(err) {
			out = append(out, SchemaError{
				Path:    cuePathString(e.Path()),
				Message: e.Error(),
			})
		}
		return out, nil
	}
	return nil, nil
}

func cuePathString(parts []string) string {
	path := ""
	for i, p := range parts {
		if i > 0 {
			path += "."
		}
		path += p
	}
	return path
}
