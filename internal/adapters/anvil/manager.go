package anvil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

const (
	DefaultAnvilBinary = "anvil"
	readyAttempts      = 60
	readyDelay         = 250 * time.Millisecond
	stopTimeout        = 5 * time.Second
	logTailLines       = 10
)

// Manager starts and stops local anvil processes
type Manager struct {
	binary string
	runDir string
	log    *slog.Logger

	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

// NewManager creates a new anvil manager
func NewManager(cfg *config.RuntimeConfig, log *slog.Logger) *Manager {
	binary := cfg.AnvilPath
	if binary == "" {
		binary = DefaultAnvilBinary
	}
	runDir := filepath.Join(os.TempDir(), "treb-vote")
	if cfg.CacheDir != "" {
		runDir = filepath.Join(cfg.CacheDir, "anvil")
	}
	return &Manager{
		binary: binary,
		runDir: runDir,
		log:    log.With("component", "anvil"),
		procs:  make(map[string]*exec.Cmd),
	}
}

// buildAnvilArgs returns the command line for instance
func buildAnvilArgs(instance *domain.AnvilInstance) []string {
	args := []string{"--port", instance.Port, "--host", "127.0.0.1"}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	if instance.ForkURL != "" {
		args = append(args, "--fork-url", instance.ForkURL)
	}
	return args
}

// setFilePaths fills in pid and log files that were not preset
func (m *Manager) setFilePaths(instance *domain.AnvilInstance) {
	if instance.Name == "" {
		instance.Name = "anvil"
	}
	if instance.PidFile == "" {
		instance.PidFile = filepath.Join(m.runDir, fmt.Sprintf("%s.pid", instance.Name))
	}
	if instance.LogFile == "" {
		instance.LogFile = filepath.Join(m.runDir, fmt.Sprintf("%s.log", instance.Name))
	}
}

// Start launches instance and waits until its RPC answers
func (m *Manager) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)
	if running, _ := m.isRunning(instance); running {
		return fmt.Errorf("anvil '%s' is already running (PID file exists at %s)", instance.Name, instance.PidFile)
	}
	if err := os.MkdirAll(m.runDir, 0755); err != nil {
		return fmt.Errorf("failed to create anvil run directory: %w", err)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(m.binary, buildAnvilArgs(instance)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}
	if err := writePidFile(instance.PidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	m.mu.Lock()
	m.procs[instance.Name] = cmd
	m.mu.Unlock()

	m.log.Debug("started anvil", "name", instance.Name, "pid", cmd.Process.Pid, "fork", instance.ForkURL, "log", instance.LogFile)

	if err := m.waitReady(ctx, instance); err != nil {
		var logs bytes.Buffer
		_ = m.StreamLogs(ctx, instance, &logs)
		_ = m.Stop(ctx, instance)
		return fmt.Errorf("anvil '%s' did not become ready: %w%s", instance.Name, err, logTail(logs.String(), logTailLines))
	}
	return nil
}

func (m *Manager) waitReady(ctx context.Context, instance *domain.AnvilInstance) error {
	return retry.Do(
		func() error {
			return checkRPCHealth(ctx, instance.RPCURL())
		},
		retry.Context(ctx),
		retry.Attempts(readyAttempts),
		retry.Delay(readyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// Stop terminates instance, killing it if it ignores SIGTERM
func (m *Manager) Stop(_ context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)

	m.mu.Lock()
	cmd, owned := m.procs[instance.Name]
	delete(m.procs, instance.Name)
	m.mu.Unlock()

	var process *os.Process
	if owned {
		process = cmd.Process
	} else {
		pid, err := readPidFile(instance.PidFile)
		if err != nil {
			return nil
		}
		if process, err = os.FindProcess(pid); err != nil {
			return fmt.Errorf("failed to find process: %w", err)
		}
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil && !strings.Contains(err.Error(), "process already finished") {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		if owned {
			_ = cmd.Wait()
		} else {
			_, _ = process.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		_ = process.Kill()
		<-done
	}

	if err := os.Remove(instance.PidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	m.log.Debug("stopped anvil", "name", instance.Name)
	return nil
}

// StreamLogs copies the instance log to writer
func (m *Manager) StreamLogs(_ context.Context, instance *domain.AnvilInstance, writer io.Writer) error {
	m.setFilePaths(instance)
	f, err := os.Open(instance.LogFile)
	if err != nil {
		return fmt.Errorf("log file does not exist: %s", instance.LogFile)
	}
	defer f.Close()
	_, err = io.Copy(writer, f)
	return err
}

// logTail formats the last n lines of an anvil log for an error message
func logTail(logs string, n int) string {
	lines := strings.Split(strings.TrimSpace(logs), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return "\nanvil output:\n  " + strings.Join(lines, "\n  ")
}

func (m *Manager) isRunning(instance *domain.AnvilInstance) (bool, int) {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return false, 0
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}
	return process.Signal(syscall.Signal(0)) == nil, pid
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

// checkRPCHealth checks if the RPC endpoint is responding
func checkRPCHealth(ctx context.Context, url string) error {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()
	var chainID string
	return client.CallContext(ctx, &chainID, "eth_chainId")
}

// getAvailablePort finds an available TCP port
func getAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port, nil
}
