package httpform

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validator"
)

// Factory builds the validator serving one request. Each request gets its own
// form state; the submit callback can close over r.
type Factory[T any] func(r *http.Request) (*validator.Validator[T], error)

// Option configures a Handler.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	redirect  string
	title     string
	formAttrs validator.Attrs
	subset    render.FieldSubset
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRedirect answers successful submissions with 303 See Other to location.
// Without it the form is rendered again with 200.
func WithRedirect(location string) Option {
	return func(o *options) {
		o.redirect = strings.TrimSpace(location)
	}
}

// WithTitle sets the heading rendered above the form.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithFormAttrs adds attributes to the form element (action, class, ...).
func WithFormAttrs(attrs validator.Attrs) Option {
	return func(o *options) {
		o.formAttrs = o.formAttrs.Merge(attrs)
	}
}

// WithSubset limits the fields rendered and decoded.
func WithSubset(subset render.FieldSubset) Option {
	return func(o *options) {
		o.subset = subset
	}
}

// Handler serves a schema-backed HTML form: GET renders it, POST decodes the
// body, submits it through the validator and renders the outcome.
type Handler[T any] struct {
	factory  Factory[T]
	renderer *render.Renderer
	fields   []schema.Field
	opts     options
}

// New constructs a Handler. fields drive both rendering and decoding.
func New[T any](factory Factory[T], renderer *render.Renderer, fields []schema.Field, opts ...Option) (*Handler[T], error) {
	if factory == nil {
		return nil, errors.New("httpform: factory is required")
	}
	if renderer == nil {
		return nil, errors.New("httpform: renderer is required")
	}

	cfg := options{
		logger:    slog.New(slog.DiscardHandler),
		formAttrs: validator.Attrs{"method": "post"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Handler[T]{
		factory:  factory,
		renderer: renderer,
		fields:   render.ApplySubset(fields, cfg.subset),
		opts:     cfg,
	}, nil
}

// Routes mounts GET / and POST / on a chi router.
func (h *Handler[T]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	r.Post("/", h.Submit)
	return r
}

// Show renders the form with its defaults.
func (h *Handler[T]) Show(w http.ResponseWriter, r *http.Request) {
	form, err := h.factory(r)
	if err != nil {
		h.fail(w, "build form", err)
		return
	}
	h.render(w, form, http.StatusOK)
}

// Submit decodes the request body into the form and runs its submit flow.
func (h *Handler[T]) Submit(w http.ResponseWriter, r *http.Request) {
	form, err := h.factory(r)
	if err != nil {
		h.fail(w, "build form", err)
		return
	}

	raw, err := ParseRequest(r)
	if err != nil {
		h.opts.logger.Warn("httpform: invalid request body", "form", form.Name(), "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	form.SetValues(Decode(raw, h.fields))

	err = form.Submit(r.Context())
	switch {
	case err == nil:
		if h.opts.redirect != "" {
			http.Redirect(w, r, h.opts.redirect, http.StatusSeeOther)
			return
		}
		h.render(w, form, http.StatusOK)
	case errors.Is(err, validator.ErrInvalid):
		h.render(w, form, http.StatusUnprocessableEntity)
	case errors.Is(err, validator.ErrSubmitInProgress):
		h.render(w, form, http.StatusConflict)
	case len(form.Errors()) > 0:
		h.opts.logger.Info("httpform: submit rejected", "form", form.Name(), "error", err)
		h.render(w, form, http.StatusUnprocessableEntity)
	default:
		h.fail(w, "submit", err)
	}
}

func (h *Handler[T]) render(w http.ResponseWriter, form *validator.Validator[T], status int) {
	view := render.NewView(form, h.fields, h.opts.formAttrs)
	view.Title = h.opts.title

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, view); err != nil {
		h.fail(w, "render", err)
		return
	}
	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.opts.logger.Error("httpform: write response", "form", form.Name(), "error", err)
	}
}

func (h *Handler[T]) fail(w http.ResponseWriter, stage string, err error) {
	h.opts.logger.Error("httpform: "+stage+" failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
