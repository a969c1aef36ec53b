package worksteal

import (
	"time"

	"github.com/aovestdipaperino/worksteal/service/scheduler"
	"github.com/aovestdipaperino/worksteal/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the pool Service.
type Option func(s *Service)

// WithConfig sets the full configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.Scheduler.WorkerCount = count
	}
}

// WithStealBatch sets the maximum number of tasks taken in a single steal
func WithStealBatch(size int) Option {
	return func(s *Service) {
		s.config.Scheduler.StealBatch = size
	}
}

// WithShutdownTimeout bounds the Shutdown drain; zero waits forever
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.Scheduler.ShutdownTimeout = timeout
	}
}

// WithPoolID sets an explicit pool identifier instead of a generated one
func WithPoolID(id string) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, scheduler.WithPoolID(id))
	}
}

// WithFaultListeners registers callbacks invoked after every recovered task
// panic.
func WithFaultListeners(fns ...scheduler.FaultListener) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, scheduler.WithFaultListeners(fns...))
	}
}

// WithSchedulerOptions lets the caller supply additional options passed to
// scheduler.New (e.g. an external progress tracker).
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, opts...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path. The function is safe to call multiple
// times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter. This enables integrations with exporters other than the
// built-in stdout exporter, for example OTLP, Jaeger or Zipkin. The function
// is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
