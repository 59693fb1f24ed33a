// Package render draws validator-backed forms to HTML with pongo2 templates.
//
// NewView snapshots a validator into a View: one binding per schema field
// plus the form binding and any form-level error. Renderer executes the
// built-in "form" template (or an override loaded through WithFS,
// WithBaseDir or a go-theme partial) against that view:
//
//	renderer, _ := render.New(render.WithHiddenFields(render.CSRFToken("_csrf", token)))
//	view := render.NewView(form, parser.Fields(), validator.Attrs{"method": "post"})
//	err := renderer.Render(w, view)
package render
