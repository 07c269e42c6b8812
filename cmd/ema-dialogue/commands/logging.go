package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

var loggerProvider *sdklog.LoggerProvider

// setupLogging sends CLI diagnostics and the records of every core package
// logger to w. Debug records are only kept when verbose is set.
func setupLogging(w io.Writer, verbose bool) error {
	level := slog.LevelInfo
	minSeverity := otellog.SeverityInfo
	if verbose {
		level = slog.LevelDebug
		minSeverity = otellog.SeverityDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create log exporter: %w", err)
	}

	shutdownLogging()
	loggerProvider = sdklog.NewLoggerProvider(sdklog.WithProcessor(&severityProcessor{
		Processor: sdklog.NewSimpleProcessor(exporter),
		min:       minSeverity,
	}))
	global.SetLoggerProvider(loggerProvider)
	return nil
}

func shutdownLogging() {
	if loggerProvider == nil {
		return
	}
	if err := loggerProvider.Shutdown(context.Background()); err != nil {
		slog.Debug("failed to shut down logger provider", "error", err)
	}
	loggerProvider = nil
}

// severityProcessor drops records below min before they are exported.
type severityProcessor struct {
	sdklog.Processor
	min otellog.Severity
}

func (p *severityProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < p.min {
		return nil
	}
	return p.Processor.OnEmit(ctx, record)
}
