package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/txvar/internal/value"
	"github.com/roach88/txvar/internal/vars"
)

// Scenario defines one conformance scenario: a named, ordered list of
// lifecycle and variable operations executed against a fresh session.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name and the recorded run's scenario label.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Capacity overrides the estimated initial variable count for the
	// session's store. Nil means the store default.
	Capacity *int `yaml:"capacity,omitempty"`

	// Steps is the ordered list of operations to execute.
	Steps []Step `yaml:"steps"`
}

// Step is one operation within a scenario.
//
// Lifecycle ops (begin, savepoint, rollback_to, release, commit, abort)
// use only Depth. Variable ops (set, get, set_session, get_session) use
// Name plus Value/Type for writes and Default/DefaultType for reads.
type Step struct {
	Op   string `yaml:"op"`
	Name string `yaml:"name,omitempty"`

	// Value is the written value for set ops. A missing value with an
	// explicit Type writes a typed null; a missing value without a Type
	// reaches the store as undeterminable and fails there.
	Value any    `yaml:"value,omitempty"`
	Type  string `yaml:"type,omitempty"`

	// Default is the caller-supplied default for get ops. It also
	// declares the expected type, exactly as at the store surface.
	Default     any    `yaml:"default,omitempty"`
	DefaultType string `yaml:"default_type,omitempty"`

	// Depth is the target savepoint depth for rollback_to and release.
	// Zero means the innermost savepoint at execution time.
	Depth int `yaml:"depth,omitempty"`

	// Expect validates the step's outcome. Nil means the step must
	// simply not error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Value and Type describe the expected returned value (for reads,
	// what Get produced; for writes, the stored value).
	Value any    `yaml:"value,omitempty"`
	Type  string `yaml:"type,omitempty"`

	// IsNull expects the read to produce a typed null.
	IsNull bool `yaml:"is_null,omitempty"`

	// Error expects the step to fail with this store error code
	// (e.g. "TYPE_MISMATCH").
	Error string `yaml:"error,omitempty"`
}

// Step op constants. These match the recorded trace op kinds so a
// scenario step maps one-to-one onto a recorded op.
const (
	StepBegin      = "begin"
	StepSavepoint  = "savepoint"
	StepRollbackTo = "rollback_to"
	StepRelease    = "release"
	StepCommit     = "commit"
	StepAbort      = "abort"
	StepSet        = "set"
	StepGet        = "get"
	StepSetSession = "set_session"
	StepGetSession = "get_session"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently dropping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and enum values. It deliberately
// does not require step names or values to be present: an empty name or a
// missing value is how a scenario exercises the store's own error paths.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Capacity != nil && (*s.Capacity < 0 || *s.Capacity > vars.MaxEstimatedVars) {
		return fmt.Errorf("capacity %d out of range [0, %d]", *s.Capacity, vars.MaxEstimatedVars)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !knownOp(step.Op) {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Depth < 0 {
			return fmt.Errorf("steps[%d]: depth must be non-negative", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && !knownErrorCode(step.Expect.Error) {
			return fmt.Errorf("steps[%d].expect: unknown error code %q", i, step.Expect.Error)
		}
	}
	return nil
}

func knownOp(op string) bool {
	switch op {
	case StepBegin, StepSavepoint, StepRollbackTo, StepRelease,
		StepCommit, StepAbort, StepSet, StepGet, StepSetSession, StepGetSession:
		return true
	}
	return false
}

func knownErrorCode(code string) bool {
	switch vars.StoreErrorCode(code) {
	case vars.ErrCodeNullName, vars.ErrCodeUnknownType,
		vars.ErrCodeTypeMismatch, vars.ErrCodeNoTransaction:
		return true
	}
	return false
}

// convertValue converts a YAML-parsed scalar into a store value. An
// explicit type name coerces the scalar; without one the Go type decides.
// A nil scalar with a type name becomes a typed null; a nil scalar without
// one returns a nil Value, which the store rejects as undeterminable.
func convertValue(raw any, typeName string) (value.Value, error) {
	if typeName == "" {
		return inferValue(raw)
	}

	t, err := value.ParseTypeID(typeName)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return value.NewNull(t), nil
	}

	switch t {
	case value.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("bool value expected, got %T", raw)
		}
		return value.Bool(b), nil

	case value.TypeInt:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil

	case value.TypeFloat:
		switch v := raw.(type) {
		case float64:
			return value.Float(v), nil
		case int:
			return value.Float(v), nil
		case int64:
			return value.Float(v), nil
		default:
			return nil, fmt.Errorf("float value expected, got %T", raw)
		}

	case value.TypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("text value expected, got %T", raw)
		}
		return value.Text(s), nil

	case value.TypeBytes:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("bytes value expected as string, got %T", raw)
		}
		return value.Bytes([]byte(s)), nil

	case value.TypeTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return value.Timestamp(v), nil
		case string:
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("timestamp value: %w", err)
			}
			return value.Timestamp(ts), nil
		default:
			return nil, fmt.Errorf("timestamp value expected, got %T", raw)
		}

	default:
		return nil, fmt.Errorf("unsupported type %q", typeName)
	}
}

// inferValue maps a YAML scalar to a value by its Go type.
func inferValue(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case nil:
		// The store reports UNKNOWN_TYPE for a nil value; pass it through
		// so scenarios can exercise that path.
		return nil, nil
	case bool:
		return value.Bool(v), nil
	case int:
		return value.Int(v), nil
	case int64:
		return value.Int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", v)
		}
		return value.Int(v), nil
	case float64:
		return value.Float(v), nil
	case string:
		return value.Text(v), nil
	case time.Time:
		return value.Timestamp(v), nil
	default:
		return nil, fmt.Errorf("unsupported scalar type %T", raw)
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("int value expected, got %T", raw)
	}
}
