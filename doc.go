// Package formstate manages the state of schema-validated forms.
//
// A form holds flattened values, touched flags and manual errors. Errors are
// derived from an external schema (see pkg/schema/openapi) and shown only for
// touched fields; manual errors set by the application take precedence until
// the field is edited. Submit blocks on displayed errors, decodes the values
// into T and hands them to a callback.
//
//	form, err := formstate.New(formstate.Config[Signup]{
//		Schema:   parser,
//		Defaults: map[string]any{"email": ""},
//		OnSubmit: func(ctx context.Context, s Signup, f formstate.SubmitContext) error {
//			return accounts.Create(ctx, s)
//		},
//	})
//
// Forms can also be described in YAML and loaded with LoadDefinition. The
// subpackages render forms to HTML (render, httpform), drive them from a
// terminal (tui) and export metrics (metrics).
package formstate
