// Package validator implements the form-state container: values, touched
// flags and errors stored as flattened dotted-path maps, with mutators,
// element bindings and a guarded submit flow.
//
// Errors are derived on every read rather than pushed through reactive
// effects. A read reconstructs the nested record, validates it with the
// configured schema.SafeParser (memoised until the values change), keeps the
// issues of touched paths and overlays manually set errors. Manual errors
// take precedence on conflict and are cleared when their path is edited.
//
// Typical usage:
//
//	v, err := validator.New(validator.Config[Signup]{
//		Schema:   parser,
//		Defaults: map[string]any{"email": ""},
//		OnSubmit: func(ctx context.Context, s Signup, form validator.SubmitContext) error {
//			if err := api.Create(ctx, s); err != nil {
//				form.SetError("email", "already registered")
//				return err
//			}
//			form.Reset()
//			return nil
//		},
//	})
//
//	field := v.Field("email", nil)
//	field.OnInput("ada@example.com")
//	field.OnBlur()
//	err = v.Form(nil).OnSubmit(ctx)
package validator
