package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(Reset)
	return logs
}

func TestCategoryLoggersAreNamed(t *testing.T) {
	logs := observe(t)

	Store("opened %s", "db")
	RemoteDebug("GET %s", "/repos")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "store", entries[0].LoggerName)
	assert.Equal(t, "opened db", entries[0].Message)
	assert.Equal(t, "remote", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestGetCachesLoggers(t *testing.T) {
	observe(t)
	assert.Same(t, Get(CategoryVFS), Get(CategoryVFS))
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	setLogger(zap.New(core), Options{Categories: map[string]bool{"store": false}})
	t.Cleanup(Reset)

	Store("hidden")
	Executor("visible")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "executor", logs.All()[0].LoggerName)
	assert.False(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryRemote))
}

func TestNoopBeforeConfigure(t *testing.T) {
	Reset()
	// must not panic
	Get(CategoryBoot).Error("nothing %d", 1)
	assert.NoError(t, Sync())
}

func TestConfigureWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gen1.log")
	require.NoError(t, Configure(Options{Level: "debug", Format: "json", File: path}))
	t.Cleanup(Reset)

	VFSDebug("write path=%s", "src/a.js")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "src/a.js"), "log file should contain the message: %s", data)
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	err := Configure(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t)

	timer := StartTimer(CategoryRemote, "push")
	time.Sleep(2 * time.Millisecond)
	timer.StopWithThreshold(time.Nanosecond)

	var slow []observer.LoggedEntry
	for _, e := range logs.All() {
		if e.LoggerName == "performance" {
			slow = append(slow, e)
		}
	}
	require.Len(t, slow, 1)
	assert.Contains(t, slow[0].Message, "SLOW: remote/push")
}
