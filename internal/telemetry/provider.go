package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers は Setup が登録したプロバイダです。Enabled が false の場合は何も登録していません。
type Providers struct {
	Enabled     bool
	ServiceName string

	tracer *sdktrace.TracerProvider
	logger *sdklog.LoggerProvider
}

// Setup は OpenTelemetry のトレースとログを初期化します。
//
// endpoint が空の場合は何も登録せず、Shutdown は何もしません。
// 登録したプロバイダは Shutdown で未送信のデータを送り出してから停止します。
func Setup(ctx context.Context, serviceName, endpoint string) (*Providers, error) {
	p := &Providers{ServiceName: serviceName}
	if endpoint == "" {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}
	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(endpoint))
	if err != nil {
		_ = p.tracer.Shutdown(ctx)
		return nil, err
	}
	p.logger = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(p.tracer)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	global.SetLoggerProvider(p.logger)
	p.Enabled = true
	return p, nil
}

// Shutdown は登録したプロバイダを停止します。
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled {
		return nil
	}
	return errors.Join(p.tracer.Shutdown(ctx), p.logger.Shutdown(ctx))
}

// NewLogger は w へのテキスト出力を行うロガーを生成します。
// テレメトリが有効な場合は同じレコードを OpenTelemetry のログにも送ります。
func (p *Providers) NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if !p.Enabled {
		return slog.New(text)
	}
	bridge := otelslog.NewHandler(p.ServiceName, otelslog.WithLoggerProvider(p.logger))
	return slog.New(teeHandler{text, leveled{bridge, level}})
}
