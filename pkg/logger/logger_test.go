package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level string, warnStack bool) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Options{ServiceName: "test", Level: ParseLevel(level), Output: buf, WarnStack: warnStack, Format: FormatJSON}), buf
}

func TestErrorCarriesContextFieldsAndStack(t *testing.T) {
	log, buf := newBufferLogger("debug", false)

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithReference(ctx, "sub_v1_1700000000000")
	ctx = log.WithFields(ctx, map[string]any{"kind": "sub"})
	log.Error(ctx, "boom", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"reference":"sub_v1_1700000000000"`)
	assert.Contains(t, out, `"kind":"sub"`)
	assert.Contains(t, out, `"service":"test"`)
	assert.Contains(t, out, `"stack"`)
}

func TestFieldsDoNotLeakIntoParentContext(t *testing.T) {
	log, buf := newBufferLogger("info", false)
	parent := log.WithVendorID(context.Background(), "v1")
	_ = log.WithStoreID(parent, "s1")

	log.Info(parent, "parent")
	assert.Contains(t, buf.String(), `"vendor_id":"v1"`)
	assert.NotContains(t, buf.String(), "store_id")
}

func TestWarnStackToggle(t *testing.T) {
	log, buf := newBufferLogger("debug", false)
	log.Warn(context.Background(), "quiet")
	assert.NotContains(t, buf.String(), `"stack"`)

	log, buf = newBufferLogger("debug", true)
	log.Warn(context.Background(), "loud")
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestDebugRespectsLevel(t *testing.T) {
	log, buf := newBufferLogger("info", false)
	log.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())
}

func TestNilContextFallsBackToBase(t *testing.T) {
	log, buf := newBufferLogger("info", false)
	log.Info(nil, "no ctx")
	assert.Contains(t, buf.String(), "no ctx")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
}
