package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Error codes reported by Load and Validate.
const (
	ErrCodeRead   = "C001" // config file could not be read
	ErrCodeParse  = "C002" // YAML syntax error or unknown key
	ErrCodeSchema = "C003" // value rejected by the schema
	ErrCodeEncode = "C004" // config could not be encoded for checking
)

// Issue is one problem found in a configuration.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path != "" {
		return fmt.Sprintf("%s: %s: %s", i.Code, i.Path, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// ValidationError collects every issue found in a configuration.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

// Validate checks cfg against the embedded schema and returns a
// *ValidationError listing every violation.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return &ValidationError{Issues: []Issue{{Code: ErrCodeEncode, Message: err.Error()}}}
	}

	err := def.Unify(v).Validate(cue.Concrete(true), cue.All())
	if err == nil {
		return nil
	}
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues = append(issues, Issue{
			Code:    ErrCodeSchema,
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return &ValidationError{Issues: issues}
}
