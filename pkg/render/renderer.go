package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
)

// DefaultTemplate is the template used to draw a form unless overridden by
// WithTemplate or a theme partial.
const DefaultTemplate = "form"

// ThemePartialKey is the theme partial that overrides the form template.
const ThemePartialKey = "formstate.form"

// ThemeStylesheetKey is the asset key resolved through the theme for the
// form stylesheet.
const ThemeStylesheetKey = "formstate.stylesheet"

// Option configures a Renderer.
type Option func(*config)

type config struct {
	baseDir     string
	templates   fs.FS
	extension   string
	template    string
	submitLabel string
	theme       *theme.RendererConfig
	hidden      []HiddenField
	globals     map[string]any
}

// WithBaseDir loads templates from a directory on disk before the built-in
// ones.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files before the built-in ones.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the template extension (default ".tpl").
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplate selects the template used by Render.
func WithTemplate(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.template = trimmed
		}
	}
}

// WithSubmitLabel sets the default submit button label.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			cfg.submitLabel = trimmed
		}
	}
}

// WithTheme exposes a resolved go-theme configuration to templates: name,
// variant, tokens, CSS variables (as an inline style on the form) and the
// stylesheet asset. A ThemePartialKey partial replaces the form template.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithHiddenFields adds hidden inputs (CSRF tokens, versions) to every form.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(cfg *config) {
		cfg.hidden = append(cfg.hidden, fields...)
	}
}

// WithGlobalData seeds values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Renderer draws form views to HTML with pongo2 templates.
type Renderer struct {
	mu sync.RWMutex

	set         *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	ext         string
	template    string
	submitLabel string
	theme       *theme.RendererConfig
	hidden      []map[string]any
}

// New constructs a Renderer. Custom template sources are searched before the
// built-in templates.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{
		extension:   ".tpl",
		template:    DefaultTemplate,
		submitLabel: "Submit",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("render: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	loaders = append(loaders, pongo2.NewFSLoader(Templates()))

	set := pongo2.NewSet("formstate", loaders...)
	set.Globals = pongo2.Context{}
	for key, value := range cfg.globals {
		if key != "" {
			set.Globals[key] = value
		}
	}

	template := cfg.template
	if cfg.theme != nil {
		if partial := strings.TrimSpace(cfg.theme.Partials[ThemePartialKey]); partial != "" {
			template = partial
		}
	}

	return &Renderer{
		set:         set,
		templates:   make(map[string]*pongo2.Template),
		ext:         cfg.extension,
		template:    template,
		submitLabel: cfg.submitLabel,
		theme:       cfg.theme,
		hidden:      normalizeHidden(cfg.hidden),
	}, nil
}

// ContentType reports the media type produced by Render.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws view with the configured template into w.
func (r *Renderer) Render(w io.Writer, view View) error {
	if r == nil || r.set == nil {
		return errors.New("render: renderer is nil")
	}
	tmpl, err := r.lookup(r.template)
	if err != nil {
		return err
	}
	return r.execute(tmpl, view, w)
}

// RenderString draws view with an inline template.
func (r *Renderer) RenderString(content string, view View) (string, error) {
	if r == nil || r.set == nil {
		return "", errors.New("render: renderer is nil")
	}
	tmpl, err := r.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("render: parse template string: %w", err)
	}
	var buf bytes.Buffer
	if err := r.execute(tmpl, view, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) execute(tmpl *pongo2.Template, view View, w io.Writer) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(r.context(view), &buf); err != nil {
		return fmt.Errorf("render: execute template: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *Renderer) lookup(name string) (*pongo2.Template, error) {
	path := name
	if !strings.HasSuffix(path, r.ext) {
		path += r.ext
	}

	r.mu.RLock()
	if tmpl, ok := r.templates[path]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", path, err)
	}
	r.templates[path] = tmpl
	return tmpl, nil
}

func (r *Renderer) context(view View) pongo2.Context {
	themeCtx := r.themeContext()

	formAttrs := view.Form.Attrs
	if style, _ := themeCtx["css_vars_style"].(string); style != "" {
		formAttrs = formAttrs.Merge(map[string]any{"style": style})
	}
	if name, _ := themeCtx["name"].(string); name != "" {
		formAttrs = formAttrs.Merge(map[string]any{"data-theme": name})
	}

	fields := make([]map[string]any, 0, len(view.Fields))
	for _, fv := range view.Fields {
		fields = append(fields, map[string]any{
			"path":     fv.Field.Path,
			"id":       FieldID(fv.Field.Path),
			"label":    fv.Field.Label(),
			"required": fv.Field.Required,
			"type":     InputType(fv.Field),
			"attrs":    Attributes(fv.Binding.Attrs),
			"error":    fv.Binding.Error,
			"touched":  fv.Binding.Touched,
		})
	}

	submitLabel := view.SubmitLabel
	if submitLabel == "" {
		submitLabel = r.submitLabel
	}

	return pongo2.Context{
		"title":        view.Title,
		"submit_label": submitLabel,
		"form": map[string]any{
			"attrs":      Attributes(formAttrs),
			"error":      view.FormError,
			"submitting": view.Submitting,
		},
		"fields": fields,
		"hidden": r.hidden,
		"theme":  themeCtx,
	}
}

func (r *Renderer) themeContext() map[string]any {
	cfg := r.theme
	if cfg == nil {
		return map[string]any{}
	}
	ctx := map[string]any{
		"name":           cfg.Theme,
		"variant":        cfg.Variant,
		"tokens":         cfg.Tokens,
		"css_vars_style": inlineCSSVars(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx["stylesheet"] = cfg.AssetURL(ThemeStylesheetKey)
	}
	return ctx
}

func inlineCSSVars(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
