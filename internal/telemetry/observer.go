package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"forestsim/internal/forest"
)

// LogObserver reports trial progress through slog: every TrialEvery-th trial
// and every YearEvery-th year, plus replanting and depleted stands.
type LogObserver struct {
	Log        *slog.Logger
	Trials     int
	TrialEvery int
	YearEvery  int
}

func NewLogObserver(log *slog.Logger, trials int) *LogObserver {
	return &LogObserver{Log: log, Trials: trials, TrialEvery: 10, YearEvery: 5}
}

func (o *LogObserver) TrialStarted(trial int, s *forest.Stand) {
	if o.TrialEvery > 0 && trial%o.TrialEvery == 0 {
		o.Log.Info("running trial", "trial", trial, "of", o.Trials, "trees", s.Total())
	}
}

func (o *LogObserver) YearCompleted(trial int, ys forest.YearStats) {
	if o.YearEvery > 0 && ys.Year%o.YearEvery == 0 {
		o.Log.Debug("year simulated", "trial", trial, "year", ys.Year, "living", ys.Living, "total", ys.Total)
	}
}

func (o *LogObserver) Replanted(trial, year, added int) {
	o.Log.Info("beating up", "trial", trial, "year", year, "added", added)
}

func (o *LogObserver) StandDepleted(trial, year int) {
	o.Log.Warn("stand has no living trees", "trial", trial, "year", year)
}

func (o *LogObserver) TrialFinished(trial int, _ forest.TrialResult, err error) {
	if err != nil {
		o.Log.Error("trial stopped", "trial", trial, "err", err)
	}
}

// TraceObserver records one span per trial, parented on the context given at
// construction. Replanting and depletion become span events.
type TraceObserver struct {
	ctx    context.Context
	tracer trace.Tracer
	spans  sync.Map // trial -> trace.Span
}

func NewTraceObserver(ctx context.Context, tp trace.TracerProvider) *TraceObserver {
	return &TraceObserver{ctx: ctx, tracer: tp.Tracer(ServiceName)}
}

func (o *TraceObserver) span(trial int) trace.Span {
	if v, ok := o.spans.Load(trial); ok {
		return v.(trace.Span)
	}
	return trace.SpanFromContext(context.Background())
}

func (o *TraceObserver) TrialStarted(trial int, s *forest.Stand) {
	_, span := o.tracer.Start(o.ctx, "forest.trial", trace.WithAttributes(
		attribute.Int("trial", trial),
		attribute.Int("trees.initial", s.Total()),
		attribute.Float64("site.factor", s.SiteFactor),
		attribute.String("site.region", s.Site.Region),
	))
	o.spans.Store(trial, span)
}

func (o *TraceObserver) YearCompleted(int, forest.YearStats) {}

func (o *TraceObserver) Replanted(trial, year, added int) {
	o.span(trial).AddEvent("beating_up", trace.WithAttributes(
		attribute.Int("year", year),
		attribute.Int("added", added),
	))
}

func (o *TraceObserver) StandDepleted(trial, year int) {
	o.span(trial).AddEvent("stand_depleted", trace.WithAttributes(attribute.Int("year", year)))
}

func (o *TraceObserver) TrialFinished(trial int, r forest.TrialResult, err error) {
	v, ok := o.spans.LoadAndDelete(trial)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if n := r.Series.Len(); n > 0 {
		span.SetAttributes(
			attribute.Int("years", n),
			attribute.Float64("final.stocking_density", r.Series.StockingDensity[n-1]),
			attribute.Float64("final.survival_rate", r.Series.SurvivalRate[n-1]),
		)
	}
	span.End()
}
