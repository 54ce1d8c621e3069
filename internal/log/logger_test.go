package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentChart)

	logger.Info("recomputed", FieldMonth, "2024-04")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chart", entry[FieldComponent])
	assert.Equal(t, "2024-04", entry[FieldMonth])
	assert.Equal(t, "recomputed", entry["msg"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithError(nil).
		WithExpense("food", "lunch", 12.5, "2024-04-15")

	assert.Equal(t, "boom", fields[FieldError])
	assert.Equal(t, 12.5, fields[FieldAmount])

	slice := fields.ToSlice()
	assert.Len(t, slice, (len(fields)-1)*2)
	assert.NotContains(t, slice, FieldComponent)
}

func TestContextRoundTrip(t *testing.T) {
	logger := Discard().WithComponent(ComponentStore)
	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
