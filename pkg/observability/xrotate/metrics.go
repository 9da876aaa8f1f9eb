package xrotate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/omeyang/xspider/xrotate"

	metricRotateTotal   = "xspider.rotate.total"
	metricPrunedTotal   = "xspider.rotate.pruned"
	metricPruneFailures = "xspider.rotate.prune_failures"

	attrBase = "rotate.base"
)

// instruments 轮转器的 OTel 指标
//
// 未配置 MeterProvider 时使用全局 provider（默认 noop）。
type instruments struct {
	rotations     metric.Int64Counter
	pruned        metric.Int64Counter
	pruneFailures metric.Int64Counter
	attrs         metric.MeasurementOption
}

func newInstruments(provider metric.MeterProvider, base string) (*instruments, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	rotations, err := meter.Int64Counter(metricRotateTotal,
		metric.WithDescription("completed log file rotations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}
	pruned, err := meter.Int64Counter(metricPrunedTotal,
		metric.WithDescription("rotated files removed by retention"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}
	failures, err := meter.Int64Counter(metricPruneFailures,
		metric.WithDescription("suppressed retention delete failures"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}

	return &instruments{
		rotations:     rotations,
		pruned:        pruned,
		pruneFailures: failures,
		attrs:         metric.WithAttributes(attribute.String(attrBase, base)),
	}, nil
}

func (m *instruments) rotated() {
	if m != nil {
		m.rotations.Add(context.Background(), 1, m.attrs)
	}
}

func (m *instruments) prunedFiles(removed, failed int) {
	if m == nil {
		return
	}
	if removed > 0 {
		m.pruned.Add(context.Background(), int64(removed), m.attrs)
	}
	if failed > 0 {
		m.pruneFailures.Add(context.Background(), int64(failed), m.attrs)
	}
}
