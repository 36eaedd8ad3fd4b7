package main

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/progress"
)

func testApp(t *testing.T) *app {
	t.Helper()
	stateFiles(t)
	a, err := loadApp()
	require.NoError(t, err)
	a.logger = logging.NewNop()
	return a
}

func TestRunDaemon_InvalidSchedule(t *testing.T) {
	a := testApp(t)
	err := a.runDaemon(context.Background(), "every tuesday", false, func(context.Context) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid schedule "every tuesday"`)
}

func TestRunDaemon_StopsOnCancel(t *testing.T) {
	a := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	require.NoError(t, a.runDaemon(ctx, DefaultSchedule, false, func(context.Context) { runs.Add(1) }))
	assert.Zero(t, runs.Load())
}

func TestRunDaemon_CancelDuringRunNowCycle(t *testing.T) {
	a := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var finished atomic.Bool
	job := func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		finished.Store(true)
	}

	done := make(chan error, 1)
	go func() { done <- a.runDaemon(ctx, DefaultSchedule, true, job) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run-now cycle never started")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, finished.Load(), "daemon returned before the running cycle finished")
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}

func TestCycle_SkipsWhenCancelled(t *testing.T) {
	a := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	a.cycle(ctx, &out)
	assert.Empty(t, out.String())
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, DefaultSchedule, firstNonEmpty("", "", DefaultSchedule))
	assert.Equal(t, "", firstNonEmpty())
}

func TestLogStartPoint(t *testing.T) {
	progressPath, _ := stateFiles(t)
	core, logs := observer.New(zapcore.InfoLevel)
	log := logging.Wrap(zap.New(core))
	tracker := progress.NewTracker(progressPath, logging.NewNop())

	logStartPoint(log, tracker)
	require.NoError(t, tracker.Save(progress.NewState()))
	logStartPoint(log, tracker)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "no saved progress yet")
	assert.Equal(t, "resuming from saved progress", entries[1].Message)
	assert.Equal(t, progressPath, entries[1].ContextMap()["progress_file"])
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := cronLogger{logger: logging.Wrap(zap.New(core))}

	l.Info("schedule", "now", "12:00", "entry", 1)
	l.Error(errors.New("boom"), "panic", "stack", "trace", "dangling")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "cron: schedule", entries[0].Message)
	assert.Equal(t, "12:00", entries[0].ContextMap()["now"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["entry"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	ctx := entries[1].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "trace", ctx["stack"])
	assert.NotContains(t, ctx, "dangling")
}
