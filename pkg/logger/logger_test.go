package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(lvl Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.LevelEnablerFunc(func(zapcore.Level) bool { return true }))
	return NewFromCore(core, lvl), logs
}

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, DebugLevel, InfoLevel)
	assert.Less(t, InfoLevel, NotifyLevel)
	assert.Less(t, NotifyLevel, WarnLevel)
	assert.Less(t, WarnLevel, ErrorLevel)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"notify", NotifyLevel, false},
		{"", NotifyLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", NotifyLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotifyThreshold(t *testing.T) {
	log, logs := newObserved(NotifyLevel)

	log.Debug("debug")
	log.Info("info")
	log.Notify("notify")
	log.Warn("warn")
	log.Error("error")

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"notify", "warn", "error"}, msgs)
	assert.Equal(t, NotifyLevel, Level(logs.All()[0].Level))
}

func TestSetLevelAffectsChildren(t *testing.T) {
	log, logs := newObserved(WarnLevel)
	child := log.Named("child").With(zap.String("k", "v"))

	child.Info("hidden")
	log.SetLevel(DebugLevel)
	child.Info("shown")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "shown", entry.Message)
	assert.Equal(t, "child", entry.LoggerName)
	assert.Equal(t, "v", entry.ContextMap()["k"])
	assert.True(t, child.Enabled(DebugLevel))
}

func TestNewWritesLevelNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Notify("hello", zap.String("step", "echo"))
	log.Debug("dropped")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"level":"NOTIFY"`)
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"step":"echo"`)
	assert.False(t, strings.Contains(out, "dropped"))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "nope"})
	assert.Error(t, err)

	_, err = New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Error("nothing happens")
	assert.NoError(t, log.Sync())
}

func TestNewFromCore_ZapLevelGate(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, InfoLevel.ZapLevel())
	assert.Equal(t, zapcore.InfoLevel, NotifyLevel.ZapLevel())

	core, logs := observer.New(InfoLevel.ZapLevel())
	log := NewFromCore(core, InfoLevel)
	log.Debug("debug")
	log.Info("info")
	log.Notify("notify")
	assert.Equal(t, 0, logs.FilterMessage("debug").Len())
	assert.Equal(t, 1, logs.FilterMessage("info").Len())
	assert.Equal(t, 1, logs.FilterMessage("notify").Len())

	// zap 的 Info 门限只放行 NOTIFY 及以上
	core, logs = observer.New(zapcore.InfoLevel)
	log = NewFromCore(core, InfoLevel)
	log.Info("info")
	log.Notify("notify")
	assert.Equal(t, 0, logs.FilterMessage("info").Len())
	assert.Equal(t, 1, logs.FilterMessage("notify").Len())
}
