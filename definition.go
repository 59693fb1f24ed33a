package formstate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/schema/openapi"
	"github.com/goliatone/go-formstate/pkg/validator"
)

// ErrInvalidDefinition is returned for definitions missing a name or schema.
var ErrInvalidDefinition = errors.New("formstate: invalid definition")

// Definition is a file-driven form: a name, an inline JSON schema (in YAML
// syntax) and default values.
//
//	name: signup
//	submit_timeout: 5s
//	schema:
//	  type: object
//	  required: [email]
//	  properties:
//	    email: {type: string}
//	defaults:
//	  email: ""
type Definition struct {
	Name           string         `yaml:"name"`
	Title          string         `yaml:"title,omitempty"`
	Schema         map[string]any `yaml:"schema"`
	Defaults       map[string]any `yaml:"defaults,omitempty"`
	SubmitTimeout  time.Duration  `yaml:"submit_timeout,omitempty"`
	ResetOnSuccess bool           `yaml:"reset_on_success,omitempty"`
}

// ParseDefinition decodes a YAML definition.
func ParseDefinition(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("formstate: decode definition: %w", err)
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(def.Schema) == 0 {
		return nil, fmt.Errorf("%w: %s: schema is required", ErrInvalidDefinition, def.Name)
	}
	return &def, nil
}

// LoadDefinition reads and decodes a YAML definition from fsys.
func LoadDefinition(fsys fs.FS, name string) (*Definition, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("formstate: read definition: %w", err)
	}
	return ParseDefinition(raw)
}

// Parser builds the schema parser for the definition.
func (d *Definition) Parser() (*openapi.Parser, error) {
	return openapi.FromMap(d.Schema)
}

// Options translates the definition into validator options.
func (d *Definition) Options() []Option {
	opts := []Option{validator.WithName(d.Name)}
	if d.SubmitTimeout > 0 {
		opts = append(opts, validator.WithSubmitTimeout(d.SubmitTimeout))
	}
	if d.ResetOnSuccess {
		opts = append(opts, validator.WithResetOnSuccess())
	}
	return opts
}

// NewFromDefinition builds a validator and its field list from d. Options in
// extra are applied after the definition's own.
func NewFromDefinition[T any](d *Definition, onSubmit SubmitFunc[T], extra ...Option) (*Validator[T], []schema.Field, error) {
	if d == nil {
		return nil, nil, fmt.Errorf("%w: definition is nil", ErrInvalidDefinition)
	}
	parser, err := d.Parser()
	if err != nil {
		return nil, nil, err
	}
	v, err := New(Config[T]{
		Schema:   parser,
		Defaults: d.Defaults,
		OnSubmit: onSubmit,
	}, append(d.Options(), extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return v, parser.Fields(), nil
}
