package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, format logFormat) (*structuredHandler, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw, buf
}

func readLine(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(h).With("component", "conversation")
	LogEvent(ctx, log, slog.LevelInfo, "state.transition",
		slog.String("status", "ok"),
		slog.String("from", "main"),
		slog.String("to", "product:Foo"),
	)

	tokens := strings.Split(readLine(t, aw, buf), " ")
	expected := []string{"ts=", "level=INFO", "component=conversation", "event=state.transition", "status=ok", "rid=rid-123"}
	require.GreaterOrEqual(t, len(tokens), len(expected))
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(h).With("component", "catalog")
	LogEvent(ctx, log, slog.LevelError, "catalog.load",
		slog.String("status", "fail"),
		slog.String("source", "file"),
		slog.String("err", "boom"),
	)

	line := readLine(t, aw, buf)
	require.True(t, strings.HasPrefix(line, "{"), line)
	pos := -1
	for _, pref := range []string{`{"ts":`, `"level":"ERROR"`, `"component":"catalog"`, `"event":"catalog.load"`, `"status":"fail"`, `"rid":"rid-json"`, `"source":"file"`, `"err":"boom"`} {
		idx := strings.Index(line, pref)
		require.True(t, idx > pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := readLine(t, aw, buf)
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.Contains(t, line, "component=app")
	assert.NotContains(t, line, "rid_full=")
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := readLine(t, aw, buf)
	assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationAndLevel(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	log := slog.New(h)
	log.Debug("dropped")
	log.Info("registry.built", slog.Duration("duration", 1499*time.Microsecond), slog.String("empty", ""))

	line := readLine(t, aw, buf)
	assert.NotContains(t, line, "dropped")
	assert.Contains(t, line, "duration_ms=1")
	assert.NotContains(t, line, "empty=")
}

func TestParseRatioSpec(t *testing.T) {
	tests := []struct {
		spec     string
		num, den int
	}{
		{"1/10", 1, 10},
		{"20", 1, 20},
		{"0", 0, 0},
		{"", 0, 0},
		{"x", 0, 0},
	}
	for _, tt := range tests {
		num, den := parseRatioSpec(tt.spec)
		assert.Equal(t, tt.num, num, tt.spec)
		assert.Equal(t, tt.den, den, tt.spec)
	}

	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "Foo~V1", SanitizeLimit("Foo\x00~V1\u200b", 64))
	assert.Equal(t, "Fo", SanitizeLimit("Foo", 2))
	assert.Equal(t, "", SanitizeLimit("Foo", 0))
}

func TestStructuredHandlerGroupsAndUserText(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	log := slog.New(h).WithGroup("menu").With("entries", 3)
	log.Info("menu.built",
		slog.String("payload", "Foo\x07~Bar"),
		slog.String("outcome", "weird"),
		slog.Group("sel", slog.Int("count", 2)),
	)

	line := readLine(t, aw, buf)
	assert.Contains(t, line, "menu.entries=3")
	assert.Contains(t, line, "menu.sel.count=2")
	assert.Contains(t, line, "menu.payload=Foo~Bar")
	assert.NotContains(t, line, "outcome=")
}

func TestDurationKey(t *testing.T) {
	assert.Equal(t, "duration_ms", durationKey("duration"))
	assert.Equal(t, "delay_ms", durationKey("delay"))
	assert.Equal(t, "elapsed_ms", durationKey("elapsed_ms"))
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID(BuildRID(123, 456, 789)))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
	assert.Equal(t, "abc", CompactRID(" abc "))
}

func TestContextMeta(t *testing.T) {
	ctx := WithHandler(WithUpdateMeta(WithRID(Background(), "r"), 3, 4, 5), "start")
	assert.Equal(t, "r", RIDFrom(ctx))
	assert.Equal(t, 3, UpdateIDFrom(ctx))
	assert.EqualValues(t, 4, UserIDFrom(ctx))
	assert.EqualValues(t, 5, ChatIDFrom(ctx))
	assert.Equal(t, "start", HandlerFrom(ctx))
	assert.Zero(t, UserIDFrom(nil))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "DEBUG", levelName(slog.LevelDebug-4))
	assert.Equal(t, "INFO", levelName(slog.LevelInfo+2))
	assert.Equal(t, "WARN", levelName(slog.LevelWarn))
	assert.Equal(t, "ERROR", levelName(slog.LevelError+4))
}
