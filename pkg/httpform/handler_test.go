package httpform_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/httpform"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/testsupport"
	"github.com/goliatone/go-formstate/pkg/validator"
)

type signup struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Newsletter bool   `json:"newsletter"`
	Profile    struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	} `json:"profile"`
}

type submissions struct {
	mu   sync.Mutex
	list []signup
}

func (s *submissions) add(v signup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, v)
}

func (s *submissions) all() []signup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]signup(nil), s.list...)
}

func newHandler(t *testing.T, onSubmit validator.SubmitFunc[signup], opts ...httpform.Option) http.Handler {
	t.Helper()
	parser := testsupport.MustLoadParser(t, "signup.yaml")

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var factory httpform.Factory[signup] = func(*http.Request) (*validator.Validator[signup], error) {
		return validator.New(validator.Config[signup]{
			Schema:   parser,
			Defaults: map[string]any{"email": "", "password": ""},
			OnSubmit: onSubmit,
		}, validator.WithName("signup"))
	}
	h, err := httpform.New(factory, renderer, parser.Fields(), opts...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h.Routes()
}

func post(handler http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Show(t *testing.T) {
	handler := newHandler(t, nil, httpform.WithTitle("Join"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, fragment := range []string{`<form method="post" novalidate>`, `<h2>Join</h2>`, `name="profile.age"`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("body missing %q\n%s", fragment, body)
		}
	}
	if strings.Contains(body, "field-error") {
		t.Errorf("fresh form should not show errors\n%s", body)
	}
}

func TestHandler_SubmitInvalid(t *testing.T) {
	var got submissions
	handler := newHandler(t, func(_ context.Context, v signup, _ validator.SubmitContext) error {
		got.add(v)
		return nil
	})

	rec := post(handler, url.Values{"email": {"nope"}, "password": {"short"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, fragment := range []string{`id="field-email-error"`, `id="field-password-error"`, `value="nope"`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("body missing %q\n%s", fragment, body)
		}
	}
	if len(got.all()) != 0 {
		t.Fatalf("callback must not run for invalid input")
	}
}

func TestHandler_SubmitValidRedirects(t *testing.T) {
	var got submissions
	handler := newHandler(t, func(_ context.Context, v signup, _ validator.SubmitContext) error {
		got.add(v)
		return nil
	}, httpform.WithRedirect("/welcome"))

	rec := post(handler, url.Values{
		"email":         {"ada@example.com"},
		"password":      {"correct horse"},
		"newsletter":    {"on"},
		"profile[name]": {"Ada"},
		"profile[age]":  {"36"},
		"_csrf":         {"ignored"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/welcome" {
		t.Fatalf("unexpected location %q", loc)
	}

	var want signup
	want.Email = "ada@example.com"
	want.Password = "correct horse"
	want.Newsletter = true
	want.Profile.Name = "Ada"
	want.Profile.Age = 36
	if diff := cmp.Diff([]signup{want}, got.all()); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_CallbackFieldErrors(t *testing.T) {
	handler := newHandler(t, func(_ context.Context, _ signup, form validator.SubmitContext) error {
		validator.MapErrorPayload(
			[]schema.Field{{Path: "email"}},
			map[string][]string{"/body/email": {"Email already registered"}},
		).Apply(form)
		return errors.New("conflict")
	})

	rec := post(handler, url.Values{"email": {"ada@example.com"}, "password": {"correct horse"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email already registered") {
		t.Fatalf("expected server error in body\n%s", rec.Body.String())
	}
}

func TestHandler_CallbackFailure(t *testing.T) {
	handler := newHandler(t, func(context.Context, signup, validator.SubmitContext) error {
		return errors.New("database down")
	})

	rec := post(handler, url.Values{"email": {"ada@example.com"}, "password": {"correct horse"}})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "database down") {
		t.Fatalf("internal errors must not leak to the client")
	}
}

func TestHandler_RejectsUnsupportedMediaType(t *testing.T) {
	handler := newHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestDecode(t *testing.T) {
	fields := []schema.Field{
		{Path: "email", Type: "string"},
		{Path: "newsletter", Type: "boolean"},
		{Path: "terms", Type: "boolean"},
		{Path: "profile.age", Type: "integer"},
		{Path: "profile.score", Type: "number"},
		{Path: "tags", Type: "array"},
	}

	got := httpform.Decode(url.Values{
		"email":         {" ada@example.com "},
		"newsletter":    {"on"},
		"profile[age]":  {"abc"},
		"profile.score": {""},
		"tags":          {"a", "b"},
		"unknown":       {"x"},
	}, fields)

	want := map[string]any{
		"email":       " ada@example.com ",
		"newsletter":  true,
		"terms":       false,
		"profile.age": "abc",
		"tags":        []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}
