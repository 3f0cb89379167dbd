package anvil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

const (
	// DefaultAnvilPath is used when no anvil binary is configured
	DefaultAnvilPath = "anvil"
	stopTimeout      = 5 * time.Second
)

// Manager runs anvil fork nodes as child processes
type Manager struct {
	path    string
	chainID uint64
	log     *slog.Logger

	mu   sync.Mutex
	cmds map[string]*exec.Cmd // keyed by PID file
}

// NewManager creates a new anvil manager
func NewManager(cfg *config.RuntimeConfig, log *slog.Logger) *Manager {
	path := cfg.Fork.AnvilPath
	if path == "" {
		path = DefaultAnvilPath
	}
	return &Manager{
		path:    path,
		chainID: cfg.Fork.ChainID,
		log:     log.With("component", "AnvilManager"),
		cmds:    make(map[string]*exec.Cmd),
	}
}

// Start launches anvil for instance, writing its output to the instance log
// file. It returns once the process is running; the caller waits for RPC.
func (m *Manager) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	if instance.ChainID == "" && m.chainID != 0 {
		instance.ChainID = strconv.FormatUint(m.chainID, 10)
	}
	if pid, ok := isRunning(instance); ok {
		return fmt.Errorf("anvil '%s' is already running (PID %d, PID file %s)", instance.Name, pid, instance.PidFile)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	args := buildAnvilArgs(instance)
	m.log.Debug("Starting anvil", "path", m.path, "args", strings.Join(args, " "))

	cmd := exec.Command(m.path, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}

	if err := writePidFile(instance.PidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	m.mu.Lock()
	m.cmds[instance.PidFile] = cmd
	m.mu.Unlock()

	m.log.Info("Anvil started", "name", instance.Name, "pid", cmd.Process.Pid, "port", instance.Port, "log", instance.LogFile)
	return nil
}

// Stop terminates the instance, escalating to SIGKILL when it does not
// exit in time. Stopping an instance that is not running is a no-op.
func (m *Manager) Stop(ctx context.Context, instance *domain.AnvilInstance) error {
	m.mu.Lock()
	cmd := m.cmds[instance.PidFile]
	delete(m.cmds, instance.PidFile)
	m.mu.Unlock()

	pid, running := isRunning(instance)
	if !running && cmd == nil {
		return removePidFile(instance.PidFile)
	}

	var process *os.Process
	if cmd != nil {
		process = cmd.Process
	} else {
		p, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("failed to find process: %w", err)
		}
		process = p
	}

	m.log.Debug("Stopping anvil", "name", instance.Name, "pid", process.Pid)
	if err := process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		if err := process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		if cmd != nil {
			_ = cmd.Wait()
		} else {
			waitForExit(process)
		}
		close(done)
	}()

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		_ = process.Kill()
		<-done
	case <-ctx.Done():
		_ = process.Kill()
		<-done
	}

	return removePidFile(instance.PidFile)
}

// buildAnvilArgs returns the command line for instance
func buildAnvilArgs(instance *domain.AnvilInstance) []string {
	args := []string{"--port", instance.Port, "--host", "127.0.0.1"}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	if instance.ForkURL != "" {
		args = append(args, "--fork-url", instance.ForkURL)
		if instance.ForkBlockNumber != 0 {
			args = append(args, "--fork-block-number", strconv.FormatUint(instance.ForkBlockNumber, 10))
		}
	}
	return args
}

// isRunning reports whether the PID file names a live process
func isRunning(instance *domain.AnvilInstance) (int, bool) {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	return pid, process.Signal(syscall.Signal(0)) == nil
}

// waitForExit polls a process that is not our child
func waitForExit(process *os.Process) {
	for process.Signal(syscall.Signal(0)) == nil {
		time.Sleep(50 * time.Millisecond)
	}
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", string(data))
	}
	return pid, nil
}

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

func removePidFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Ensure Manager implements ForkNodeLauncher
var _ usecase.ForkNodeLauncher = (*Manager)(nil)
