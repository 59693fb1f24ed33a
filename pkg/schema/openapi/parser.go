package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/internal/paths"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// ErrOperationNotFound is returned by FromOperation when no operation carries
// the requested operationId.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// ErrNoRequestSchema is returned by FromOperation when the operation has no
// request body schema.
var ErrNoRequestSchema = errors.New("openapi: operation has no request body schema")

// Parser validates nested records against a JSON schema using kin-openapi.
type Parser struct {
	schema *openapi3.Schema
}

var (
	_ schema.SafeParser = (*Parser)(nil)
	_ schema.Describer  = (*Parser)(nil)
)

// New wraps an already loaded schema.
func New(s *openapi3.Schema) *Parser {
	if s == nil {
		s = openapi3.NewObjectSchema()
	}
	return &Parser{schema: s}
}

// FromJSON decodes a JSON schema document.
func FromJSON(raw []byte) (*Parser, error) {
	s := &openapi3.Schema{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("openapi: decode schema: %w", err)
	}
	return New(s), nil
}

// FromYAML decodes a YAML schema document.
func FromYAML(raw []byte) (*Parser, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("openapi: decode yaml schema: %w", err)
	}
	return FromMap(doc)
}

// FromMap builds a parser from a schema already decoded into generic values,
// for example a section of a larger YAML definition.
func FromMap(doc map[string]any) (*Parser, error) {
	if len(doc) == 0 {
		return nil, errors.New("openapi: schema is empty")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode schema: %w", err)
	}
	return FromJSON(raw)
}

// FromOperation loads an OpenAPI 3 document and returns a parser for the
// request body schema of the operation identified by operationID.
func FromOperation(ctx context.Context, raw []byte, operationID string) (*Parser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return nil, errors.New("openapi: operation id is required")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}

	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation == nil || operation.OperationID != operationID {
				continue
			}
			s := requestSchema(operation.RequestBody)
			if s == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoRequestSchema, operationID)
			}
			return New(s), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// Schema exposes the wrapped kin-openapi schema.
func (p *Parser) Schema() *openapi3.Schema {
	return p.schema
}

// SafeParse validates value and reports every failure as an issue. The value
// is normalised to plain JSON types first so integers, typed slices and
// structs nested in the record validate the way a decoded request would.
func (p *Parser) SafeParse(ctx context.Context, value map[string]any) schema.Result {
	if err := ctx.Err(); err != nil {
		return schema.Result{Issues: []schema.Issue{{Message: err.Error()}}}
	}

	normalized, err := normalize(value)
	if err != nil {
		return schema.Result{Issues: []schema.Issue{{Message: err.Error()}}}
	}

	if err := p.schema.VisitJSON(normalized, openapi3.MultiErrors()); err != nil {
		var issues []schema.Issue
		collectIssues(err, &issues)
		return schema.Result{Issues: issues}
	}
	return schema.Result{Value: normalized}
}

func normalize(value map[string]any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode value: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openapi: decode value: %w", err)
	}
	return out, nil
}

func collectIssues(err error, dest *[]schema.Issue) {
	switch typed := err.(type) {
	case nil:
		return
	case openapi3.MultiError:
		for _, inner := range typed {
			collectIssues(inner, dest)
		}
	case *openapi3.SchemaError:
		message := strings.TrimSpace(typed.Reason)
		if message == "" {
			message = typed.Error()
		}
		*dest = append(*dest, schema.Issue{
			Path:    typed.JSONPointer(),
			Message: message,
		})
	default:
		*dest = append(*dest, schema.Issue{Message: err.Error()})
	}
}

// Fields lists the leaf fields described by the schema. Properties are
// visited in name order; nested objects contribute dotted paths.
func (p *Parser) Fields() []schema.Field {
	var out []schema.Field
	collectFields(p.schema, "", &out)
	return out
}

func collectFields(s *openapi3.Schema, prefix string, dest *[]schema.Field) {
	if s == nil || len(s.Properties) == 0 {
		return
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := s.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		path := paths.Join(prefix, name)
		typ := firstSchemaType(prop.Type)

		if typ == openapi3.TypeObject && len(prop.Properties) > 0 {
			collectFields(prop, path, dest)
			continue
		}

		*dest = append(*dest, schema.Field{
			Path:     path,
			Title:    prop.Title,
			Type:     typ,
			Format:   prop.Format,
			Required: required[name],
		})
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
