package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/httpform"
	"github.com/goliatone/go-formstate/pkg/metrics"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/tui"
	"github.com/goliatone/go-formstate/pkg/validator"
)

func main() {
	definition := flag.String("definition", "form.yaml", "YAML form definition")
	mode := flag.String("mode", "render", "render, prompt or serve")
	addr := flag.String("addr", ":8080", "listen address for serve mode")
	output := flag.String("output", "", "output file for render mode (stdout if empty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *definition, *mode, *addr, *output); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			os.Exit(130)
		}
		logger.Error("formstate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, path, mode, addr, output string) error {
	def, err := formstate.LoadDefinition(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return err
	}

	switch mode {
	case "render":
		return renderForm(def, output, logger)
	case "prompt":
		return promptForm(ctx, def, os.Stdout, logger)
	case "serve":
		return serveForm(ctx, def, addr, logger)
	}
	return fmt.Errorf("unknown mode %q", mode)
}

func renderForm(def *formstate.Definition, output string, logger *slog.Logger) error {
	form, fields, err := formstate.NewFromDefinition[map[string]any](def, nil, validator.WithLogger(logger))
	if err != nil {
		return err
	}
	renderer, err := render.New()
	if err != nil {
		return err
	}
	view := render.NewView(form, fields, validator.Attrs{"method": "post"})
	view.Title = def.Title

	out := io.Writer(os.Stdout)
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	return renderer.Render(out, view)
}

func promptForm(ctx context.Context, def *formstate.Definition, out io.Writer, logger *slog.Logger) error {
	onSubmit := func(_ context.Context, data map[string]any, _ formstate.SubmitContext) error {
		payload, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(payload))
		return err
	}
	form, fields, err := formstate.NewFromDefinition[map[string]any](def, onSubmit, validator.WithLogger(logger))
	if err != nil {
		return err
	}
	runner, err := tui.New(form, fields, tui.WithLogger(logger), tui.WithPromptDriver(tui.NewSurveyDriver(out)))
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}

func serveForm(ctx context.Context, def *formstate.Definition, addr string, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	observer := metrics.NewObserver("")
	registry.MustRegister(observer, metrics.NewCacheCollector(flat.Shared(), ""))

	renderer, err := render.New()
	if err != nil {
		return err
	}

	_, fields, err := formstate.NewFromDefinition[map[string]any](def, nil)
	if err != nil {
		return err
	}
	var factory httpform.Factory[map[string]any] = func(r *http.Request) (*validator.Validator[map[string]any], error) {
		form, _, err := formstate.NewFromDefinition[map[string]any](def, func(_ context.Context, data map[string]any, _ formstate.SubmitContext) error {
			logger.Info("form submitted", "form", def.Name, "values", len(flat.Flatten(data)), "remote", r.RemoteAddr)
			return nil
		}, validator.WithLogger(logger), validator.WithObserver(observer))
		return form, err
	}
	handler, err := httpform.New(factory, renderer, fields,
		httpform.WithLogger(logger),
		httpform.WithTitle(def.Title),
	)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	logger.Info("serving form", "form", def.Name, "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
