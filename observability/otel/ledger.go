package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerInstruments exports transition outcomes and tipped value over OTLP.
// They mirror the prometheus transition registry.
type LedgerInstruments struct {
	transitions metric.Int64Counter
	tipped      metric.Int64Counter
}

var (
	ledgerOnce        sync.Once
	ledgerInstruments *LedgerInstruments
)

// Ledger returns the process-wide instruments. They bind to whatever meter
// provider is installed globally, including one installed later by Init.
func Ledger() *LedgerInstruments {
	ledgerOnce.Do(func() {
		meter := otel.Meter(instrumentationPrefix + "ledger")
		transitions, err := meter.Int64Counter("tip.transitions",
			metric.WithDescription("Applied transactions by type and outcome."))
		if err != nil {
			otel.Handle(err)
		}
		tipped, err := meter.Int64Counter("tip.amount",
			metric.WithDescription("Native value moved by committed tips."),
			metric.WithUnit("{unit}"))
		if err != nil {
			otel.Handle(err)
		}
		ledgerInstruments = &LedgerInstruments{transitions: transitions, tipped: tipped}
	})
	return ledgerInstruments
}

// RecordTransition counts one applied transaction.
func (l *LedgerInstruments) RecordTransition(ctx context.Context, txType, outcome, kind string) {
	if l == nil || l.transitions == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("type", txType),
		attribute.String("outcome", outcome),
	}
	if kind != "" {
		attrs = append(attrs, attribute.String("kind", kind))
	}
	l.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTip adds a committed tip amount. Amounts above MaxInt64 saturate.
func (l *LedgerInstruments) RecordTip(ctx context.Context, amount uint64) {
	if l == nil || l.tipped == nil {
		return
	}
	const maxInt64 = 1<<63 - 1
	if amount > maxInt64 {
		amount = maxInt64
	}
	l.tipped.Add(ctx, int64(amount))
}
