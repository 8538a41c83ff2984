package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"forestsim/internal/config"
	"forestsim/internal/forest"
)

func TestLogObserverMilestones(t *testing.T) {
	var buf bytes.Buffer
	o := NewLogObserver(NewLogger(&buf, "text", true), 20)
	s := forest.NewStand(1, forest.Site{}, 1)

	o.TrialStarted(0, s)
	o.TrialStarted(3, s)
	o.TrialStarted(10, s)
	o.YearCompleted(0, forest.YearStats{Year: 4})
	o.YearCompleted(0, forest.YearStats{Year: 5, Living: 12})
	o.Replanted(0, 2, 30)
	o.StandDepleted(1, 9)
	o.TrialFinished(2, forest.TrialResult{}, errors.New("boom"))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "running trial"))
	assert.Equal(t, 1, strings.Count(out, "year simulated"))
	assert.Contains(t, out, "living=12")
	assert.Contains(t, out, "added=30")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "err=boom")
}

func TestLogObserverInfoHidesYears(t *testing.T) {
	var buf bytes.Buffer
	o := NewLogObserver(NewLogger(&buf, "json", false), 1)
	o.YearCompleted(0, forest.YearStats{Year: 0})
	assert.Empty(t, buf.String())

	o.Replanted(0, 3, 1)
	assert.Contains(t, buf.String(), `"msg":"beating up"`)
}

func TestTraceObserverSpanPerTrial(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	p, err := config.Default()
	require.NoError(t, err)
	p.InitialStockingDensity = 200
	p.BeatingUpThreshold = 300
	p.BeatingUpYears = []int{1}

	obs := NewTraceObserver(context.Background(), tp)
	e, err := forest.NewEngine(p, 1, forest.Options{Seed: 2, Workers: 2, Observer: obs})
	require.NoError(t, err)
	_, err = e.Run(context.Background(), 3, 3)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 3)
	for _, sp := range spans {
		assert.Equal(t, "forest.trial", sp.Name())
		names := []string{}
		for _, ev := range sp.Events() {
			names = append(names, ev.Name)
		}
		assert.Contains(t, names, "beating_up")
	}
}

func TestTraceObserverRecordsFailure(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	obs := NewTraceObserver(context.Background(), tp)

	obs.TrialStarted(0, forest.NewStand(1, forest.Site{}, 1))
	obs.TrialFinished(0, forest.TrialResult{}, context.Canceled)
	obs.TrialFinished(0, forest.TrialResult{}, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestSetupDisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()
	for _, cfg := range []config.TracingConfig{
		{Enabled: true, SampleRatio: 1},
		{Endpoint: "http://localhost:4318", Enabled: false, SampleRatio: 1},
	} {
		shutdown, err := Setup(context.Background(), cfg, 1)
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
		assert.Same(t, before, otel.GetTracerProvider())
	}
}

func TestSetupInstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Setup(context.Background(), config.TracingConfig{
		Endpoint: "http://localhost:4318", Enabled: true, SampleRatio: 0.5,
	}, 42)
	require.NoError(t, err)
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, shutdown(context.Background()))
}
