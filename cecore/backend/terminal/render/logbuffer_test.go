package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferWrapsAndFilters(t *testing.T) {
	lb := NewLogBuffer(3)
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for i, lvl := range levels {
		lb.Add(LogEntry{Level: lvl, Message: string(rune('a' + i))})
	}

	assert.Equal(t, 3, lb.Len())

	all := lb.Recent(0, slog.LevelDebug)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"d", "c", "b"}, []string{all[0].Message, all[1].Message, all[2].Message})

	warn := lb.Recent(0, slog.LevelWarn)
	assert.Len(t, warn, 2)

	one := lb.Recent(1, slog.LevelDebug)
	require.Len(t, one, 1)
	assert.Equal(t, "d", one[0].Message)

	lb.Clear()
	assert.Empty(t, lb.Recent(0, slog.LevelDebug))
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	var level slog.LevelVar
	level.Set(slog.LevelInfo)

	logger := slog.New(NewLogBufferHandler(lb, &level))
	logger.Debug("dropped")
	logger.With("core", "ez80").WithGroup("step").Info("armed", "target", "0x000104")

	entries := lb.Recent(0, slog.LevelDebug)
	require.Len(t, entries, 1)
	assert.Equal(t, "armed core=ez80 step.target=0x000104", entries[0].Message)

	level.Set(slog.LevelDebug)
	logger.Debug("kept")
	assert.Equal(t, 2, lb.Len())
}

func TestFormatLogEntry(t *testing.T) {
	entry := LogEntry{
		Time:    time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC),
		Level:   slog.LevelWarn,
		Message: "Could not determine device type",
	}
	assert.Equal(t, "12:30:45 [WRN] Could not determine device type", FormatLogEntry(entry))
}
