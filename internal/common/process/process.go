// File path: internal/common/process/process.go
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/Katral_bw/internal/common"
)

// ServiceConfig describes a long-running helper such as a local embedding
// server.
type ServiceConfig struct {
	Name          string
	Command       string
	Args          []string
	Env           []string
	WorkDir       string
	ReadyURL      string
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
	StopTimeout   time.Duration
	Logger        *slog.Logger
}

const (
	defaultReadyTimeout  = 30 * time.Second
	defaultReadyInterval = 500 * time.Millisecond
	defaultStopTimeout   = 5 * time.Second
)

// ManagedService is a running helper process started by Start.
type ManagedService struct {
	name        string
	cmd         *exec.Cmd
	logger      *slog.Logger
	stopTimeout time.Duration

	exited  chan struct{}
	exitErr error
}

// Start launches the command, streams its stdout and stderr into the logger
// and blocks until ReadyURL answers or the process dies.
func Start(ctx context.Context, cfg ServiceConfig) (*ManagedService, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("process: command required")
	}
	name := serviceName(cfg)
	logger := cfg.Logger
	if logger == nil {
		logger = common.Logger()
	}
	logger = logger.With("component", "service/"+name)

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.WorkDir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process: %s stdout: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("process: %s stderr: %w", name, err)
	}
	logger.Info("process: launching", "command", cfg.Command, "args", strings.Join(cfg.Args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", name, err)
	}

	svc := &ManagedService{
		name:        name,
		cmd:         cmd,
		logger:      logger,
		stopTimeout: orDefault(cfg.StopTimeout, defaultStopTimeout),
		exited:      make(chan struct{}),
	}
	var pumps sync.WaitGroup
	pumps.Add(2)
	go pump(&pumps, stdout, logger, slog.LevelInfo)
	go pump(&pumps, stderr, logger, slog.LevelWarn)
	go func() {
		// cmd.Wait closes the pipes; drain them first.
		pumps.Wait()
		svc.exitErr = cmd.Wait()
		close(svc.exited)
	}()

	if url := strings.TrimSpace(cfg.ReadyURL); url != "" {
		timeout := orDefault(cfg.ReadyTimeout, defaultReadyTimeout)
		if err := svc.awaitReady(ctx, url, timeout, orDefault(cfg.ReadyInterval, defaultReadyInterval)); err != nil {
			_ = svc.Stop(context.Background())
			return nil, fmt.Errorf("process: %s not ready within %s: %w", name, timeout, err)
		}
		logger.Info("process: ready", "url", url)
	}
	return svc, nil
}

func pump(wg *sync.WaitGroup, r io.Reader, logger *slog.Logger, level slog.Level) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Log(context.Background(), level, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Warn("process: output stream failed", "error", err)
	}
}

// awaitReady polls url until it answers below 500. It gives up when the
// process exits or the timeout passes, returning the last probe error.
func (s *ManagedService) awaitReady(ctx context.Context, url string, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastErr := errors.New("no probe completed")
	for {
		select {
		case <-ctx.Done():
			return lastErr
		case <-s.exited:
			return fmt.Errorf("exited early: %v", s.exitErr)
		case <-ticker.C:
			if lastErr = probe(ctx, client, url); lastErr == nil {
				return nil
			}
		}
	}
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}

// Stop interrupts the process and kills it if it outlives the stop timeout.
// An exit status after the interrupt is not an error.
func (s *ManagedService) Stop(ctx context.Context) error {
	if s == nil || s.cmd.Process == nil {
		return nil
	}
	s.logger.Info("process: stopping")
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("process: interrupt failed", "error", err)
	}
	select {
	case <-s.exited:
	case <-time.After(s.stopTimeout):
		s.logger.Warn("process: stop timeout, killing")
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("process: kill %s: %w", s.name, err)
		}
		<-s.exited
	case <-ctx.Done():
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(s.exitErr, &exitErr) {
		return nil
	}
	return s.exitErr
}

func serviceName(cfg ServiceConfig) string {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = filepath.Base(strings.TrimSpace(cfg.Command))
	}
	if name == "" || name == "." {
		name = "process"
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Result captures a finished one-shot command.
type Result struct {
	Command  string
	Output   string
	ExitCode int
}

// Run executes command in dir and returns its combined output. A non-zero
// exit is reported through Result.ExitCode, not as an error; the error is
// reserved for commands that could not be started.
func Run(ctx context.Context, dir, command string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	res := Result{Command: strings.TrimSpace(command + " " + strings.Join(args, " "))}
	err := cmd.Run()
	res.Output = buf.String()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("process: run %s: %w", res.Command, err)
	}
	return res, nil
}

// BinaryPath resolves an executable path using the system PATH.
func BinaryPath(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("process: binary name required")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("process: locate %s: %w", name, err)
	}
	return filepath.Clean(path), nil
}

// ProjectBinary resolves a wrapper script such as ./mvnw inside dir, or a
// plain command on PATH.
func ProjectBinary(dir, candidate string) (string, bool) {
	if strings.HasPrefix(candidate, "./") {
		path := filepath.Join(dir, candidate)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return path, true
		}
		return "", false
	}
	path, err := BinaryPath(candidate)
	if err != nil {
		return "", false
	}
	return path, true
}
