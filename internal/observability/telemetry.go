package observability

import (
	"context"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName имя трейсера конвейера чанков
const TracerName = "github.com/annel0/voxelworld"

// InstanceID идентификатор запуска процесса, попадает в ресурс телеметрии и логи
var InstanceID = uuid.NewString()

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
// При enabled == false глобальный провайдер остаётся no-op, shutdown ничего не делает.
func InitTelemetry(ctx context.Context, serviceName string, enabled bool) (func(context.Context) error, error) {
	if !enabled {
		logging.Info("📡 OpenTelemetry выключен (service=%s)", serviceName)
		return func(context.Context) error { return nil }, nil
	}

	// OTLP HTTP экспортер (по умолчанию localhost:4318)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			attribute.String("service.instance.id", InstanceID),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → 4318, service=%s, instance=%s)", serviceName, InstanceID)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// Tracer возвращает трейсер из глобального провайдера
func Tracer() oteltrace.Tracer {
	return otel.Tracer(TracerName)
}

// ChunkAttrs атрибуты спана для операций над чанком
func ChunkAttrs(x, y, z int) oteltrace.SpanStartEventOption {
	return oteltrace.WithAttributes(
		attribute.Int("chunk.x", x),
		attribute.Int("chunk.y", y),
		attribute.Int("chunk.z", z),
	)
}
