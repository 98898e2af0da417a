package rdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatementMetrics 语句执行的 prometheus 指标
type StatementMetrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStatementMetrics 注册到 registerer，同名指标已存在时复用已有的收集器
func NewStatementMetrics(name string, registerer prometheus.Registerer) (*StatementMetrics, error) {
	statements, err := register(registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_statements_total",
			Help: "Total number of executed statements",
		},
		[]string{"operation", "status"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(registerer, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_statement_duration_seconds",
			Help:    "Duration of executed statements in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	))
	if err != nil {
		return nil, err
	}

	return &StatementMetrics{statements: statements, duration: duration}, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register collector failed")
	}
	return c, nil
}

// observer 每条语句的指标和 span，未开启时直接执行
type observer struct {
	name    string
	metrics *StatementMetrics
	tracer  trace.Tracer
}

func newObserver(options *Options) (*observer, error) {
	obs := &observer{name: options.Name}
	if options.EnableMetrics {
		metrics, err := NewStatementMetrics(options.Name, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		obs.metrics = metrics
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer("rdb." + options.Name)
	}
	return obs, nil
}

func (obs *observer) observe(ctx context.Context, operation string, table string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, "rdb."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("db.system", "sqlite"),
				attribute.String("table", table),
			),
		)
		defer span.End()
	}

	err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.statements.WithLabelValues(operation, status).Inc()
		obs.metrics.duration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	return err
}
