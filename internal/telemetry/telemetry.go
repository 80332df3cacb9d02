// Package telemetry configures OpenTelemetry tracing for runs.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
)

const tracerName = "github.com/fjglira/bugzero"

// Span attribute keys.
var (
	AttrCase    = attribute.Key("bugzero.case")
	AttrRunID   = attribute.Key("bugzero.run_id")
	AttrStep    = attribute.Key("bugzero.step")
	AttrCommand = attribute.Key("bugzero.command")
	AttrStatus  = attribute.Key("bugzero.status")
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting to cfg.File (stderr
// when empty). When tracing is disabled the global no-op provider is left
// in place and the returned ShutdownFunc does nothing.
func Setup(cfg config.TracingConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var w io.Writer = os.Stderr
	var file *os.File
	if cfg.File != "" {
		f, err := os.Create(cfg.File)
		if err != nil {
			return nil, domain.NewError("tracing", cfg.File, 0, "failed to create trace file", err)
		}
		w, file = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "bugzero"))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		err := provider.Shutdown(ctx)
		if file != nil {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}
		return err
	}, nil
}

// Tracer returns the bugzero tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
