package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(map[string]any{"user_id": "u-1", "": "ignored"})

	l.Warn("remote unreachable", map[string]any{"op": "get_user", "err": errors.New("boom")})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "remote unreachable", e.Message)
		ctx := e.ContextMap()
		assert.Equal(t, "u-1", ctx["user_id"])
		assert.Equal(t, "get_user", ctx["op"])
		assert.Equal(t, "boom", ctx["err"])
		_, hasEmpty := ctx[""]
		assert.False(t, hasEmpty)
	}
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	l := NewNop()
	l.With(map[string]any{"a": 1}).Error("x", nil)
}
