package anvil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
)

func newTestManager(t *testing.T, anvilPath string, chainID uint64) *Manager {
	t.Helper()
	cfg := &config.RuntimeConfig{Fork: config.ForkConfig{AnvilPath: anvilPath, ChainID: chainID}}
	return NewManager(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testInstance(t *testing.T) *domain.AnvilInstance {
	t.Helper()
	dir := t.TempDir()
	return &domain.AnvilInstance{
		Name:    "test",
		Port:    "9545",
		PidFile: filepath.Join(dir, "fork.pid"),
		LogFile: filepath.Join(dir, "fork.log"),
	}
}

// fakeAnvil writes a script that records its arguments and stays alive
func fakeAnvil(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := filepath.Join(dir, "anvil")
	content := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nexec sleep 30\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))
	return script, argsFile
}

func TestBuildAnvilArgs_Basic(t *testing.T) {
	instance := &domain.AnvilInstance{Port: "8545"}
	assert.Equal(t, []string{"--port", "8545", "--host", "127.0.0.1"}, buildAnvilArgs(instance))
}

func TestBuildAnvilArgs_WithFork(t *testing.T) {
	instance := &domain.AnvilInstance{
		Port:            "9000",
		ChainID:         "1",
		ForkURL:         "https://eth.example.org",
		ForkBlockNumber: 19000000,
	}
	assert.Equal(t, []string{
		"--port", "9000",
		"--host", "127.0.0.1",
		"--chain-id", "1",
		"--fork-url", "https://eth.example.org",
		"--fork-block-number", "19000000",
	}, buildAnvilArgs(instance))
}

func TestBuildAnvilArgs_BlockNumberNeedsForkURL(t *testing.T) {
	instance := &domain.AnvilInstance{Port: "9000", ForkBlockNumber: 42}
	assert.NotContains(t, buildAnvilArgs(instance), "--fork-block-number")
}

func TestIsRunning(t *testing.T) {
	instance := testInstance(t)

	_, running := isRunning(instance)
	assert.False(t, running, "no PID file")

	require.NoError(t, writePidFile(instance.PidFile, os.Getpid()))
	pid, running := isRunning(instance)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, os.WriteFile(instance.PidFile, []byte("garbage"), 0644))
	_, running = isRunning(instance)
	assert.False(t, running)
}

func TestManager_StartStop(t *testing.T) {
	script, argsFile := fakeAnvil(t)
	m := newTestManager(t, script, 10)
	instance := testInstance(t)
	instance.ForkURL = "https://eth.example.org"
	instance.ForkBlockNumber = 100

	ctx := context.Background()
	require.NoError(t, m.Start(ctx, instance))
	assert.Equal(t, "10", instance.ChainID)

	pid, running := isRunning(instance)
	require.True(t, running)
	assert.NotZero(t, pid)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(argsFile)
		return err == nil && len(data) > 0
	}, 5*time.Second, 10*time.Millisecond)

	err := m.Start(ctx, instance)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, m.Stop(ctx, instance))
	_, err = os.Stat(instance.PidFile)
	assert.True(t, os.IsNotExist(err))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "--fork-block-number 100")
	assert.Contains(t, string(args), "--chain-id 10")
}

func TestManager_StartMissingBinary(t *testing.T) {
	m := newTestManager(t, filepath.Join(t.TempDir(), "no-anvil"), 0)
	instance := testInstance(t)

	err := m.Start(context.Background(), instance)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start anvil")
	_, err = os.Stat(instance.PidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_StopNotRunning(t *testing.T) {
	m := newTestManager(t, "", 0)
	assert.Equal(t, DefaultAnvilPath, m.path)

	instance := testInstance(t)
	// A stale PID file is cleaned up
	require.NoError(t, os.WriteFile(instance.PidFile, []byte(strconv.Itoa(1<<22)), 0644))
	require.NoError(t, m.Stop(context.Background(), instance))
	_, err := os.Stat(instance.PidFile)
	assert.True(t, os.IsNotExist(err))
}
