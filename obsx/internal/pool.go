package internal

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "go.eggybyte.com/eggdata/obsx"

// poolInstrument describes one observable read from a pool stats snapshot.
// Exactly one of i64 and f64 is set.
type poolInstrument[S any] struct {
	name    string
	desc    string
	unit    string
	counter bool
	i64     func(S) int64
	f64     func(S) float64
}

func (p poolInstrument[S]) create(m metric.Meter) (metric.Observable, error) {
	desc, unit := metric.WithDescription(p.desc), metric.WithUnit(p.unit)
	switch {
	case p.f64 != nil && p.counter:
		return m.Float64ObservableCounter(p.name, desc, unit)
	case p.f64 != nil:
		return m.Float64ObservableGauge(p.name, desc, unit)
	case p.counter:
		return m.Int64ObservableCounter(p.name, desc, unit)
	default:
		return m.Int64ObservableGauge(p.name, desc, unit)
	}
}

// registerPool creates every instrument on the scope's meter and observes
// them from one snapshot per collection. A read reporting false observes nothing.
func registerPool[S any](mp metric.MeterProvider, scope string, label attribute.KeyValue, defs []poolInstrument[S], read func() (S, bool)) (metric.Registration, error) {
	meter := mp.Meter(meterName + "/" + scope)
	attrs := metric.WithAttributes(label)

	insts := make([]metric.Observable, len(defs))
	for i, def := range defs {
		inst, err := def.create(meter)
		if err != nil {
			return nil, err
		}
		insts[i] = inst
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		stats, ok := read()
		if !ok {
			return nil
		}
		for i, def := range defs {
			switch inst := insts[i].(type) {
			case metric.Int64Observable:
				o.ObserveInt64(inst, def.i64(stats), attrs)
			case metric.Float64Observable:
				o.ObserveFloat64(inst, def.f64(stats), attrs)
			}
		}
		return nil
	}, insts...)
}
