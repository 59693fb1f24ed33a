package render

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validator"
)

// View is everything a template needs to draw one form.
type View struct {
	Title       string
	SubmitLabel string
	Form        validator.FormBinding
	Fields      []FieldView
	// FormError is shown above the fields; it carries errors that are not
	// attached to a field (schema.FormKey).
	FormError  string
	Submitting bool
}

// FieldView pairs a schema field with its live binding.
type FieldView struct {
	Field   schema.Field
	Binding validator.FieldBinding
}

// NewView binds every field of the form and derives input attributes from
// the schema metadata (type, required).
func NewView[T any](v *validator.Validator[T], fields []schema.Field, formProps validator.Attrs) View {
	view := View{
		Form:       v.Form(formProps),
		FormError:  v.Error(schema.FormKey),
		Submitting: v.IsSubmitting(),
	}
	for _, field := range fields {
		props := validator.Attrs{
			"id":   FieldID(field.Path),
			"type": InputType(field),
		}
		if field.Required {
			props["required"] = true
		}
		binding := v.Field(field.Path, props)
		if props["type"] == "checkbox" {
			binding.Attrs = checkboxAttrs(binding)
		}
		if binding.Error != "" {
			binding.Attrs["aria-describedby"] = FieldID(field.Path) + "-error"
		}
		view.Fields = append(view.Fields, FieldView{Field: field, Binding: binding})
	}
	return view
}

// FieldID turns a dotted path into an element id.
func FieldID(path string) string {
	return "field-" + strings.NewReplacer(".", "-", " ", "-").Replace(path)
}

// InputType maps schema metadata onto an HTML input type.
func InputType(field schema.Field) string {
	switch strings.ToLower(field.Format) {
	case "password":
		return "password"
	case "email":
		return "email"
	case "date":
		return "date"
	case "date-time":
		return "datetime-local"
	case "uri", "url":
		return "url"
	}
	switch field.Type {
	case "integer", "number":
		return "number"
	case "boolean":
		return "checkbox"
	}
	return "text"
}

func checkboxAttrs(binding validator.FieldBinding) validator.Attrs {
	attrs := binding.Attrs.Merge(validator.Attrs{"value": "true"})
	if checked, ok := binding.Value.(bool); ok && checked {
		attrs["checked"] = true
	} else if s, ok := binding.Value.(string); ok && (s == "true" || s == "on") {
		attrs["checked"] = true
	}
	return attrs
}

// Attributes renders attrs as a deterministic, escaped attribute string with
// a leading space. true renders a bare attribute; false and nil are dropped.
func Attributes(attrs validator.Attrs) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		switch value := attrs[key].(type) {
		case nil:
			continue
		case bool:
			if value {
				b.WriteString(" ")
				b.WriteString(html.EscapeString(key))
			}
		default:
			b.WriteString(" ")
			b.WriteString(html.EscapeString(key))
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(fmt.Sprint(value)))
			b.WriteString(`"`)
		}
	}
	return b.String()
}
