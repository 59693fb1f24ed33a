// Package openapi adapts kin-openapi's JSON-schema validator to the
// schema.SafeParser contract. Schemas can be loaded from JSON, YAML, generic
// maps or the request body of an OpenAPI 3 operation. Validation runs in
// multi-error mode so every failing field is reported in one pass, each with
// the JSON pointer of the offending value.
package openapi
