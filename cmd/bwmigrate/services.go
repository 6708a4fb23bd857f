// File path: cmd/bwmigrate/services.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nicodishanthj/Katral_bw/internal/common/process"
	"github.com/nicodishanthj/Katral_bw/internal/llm"
)

func startOllamaService(ctx context.Context, cfg llm.Config, logger *slog.Logger) (*process.ManagedService, error) {
	bin, err := process.BinaryPath("ollama")
	if err != nil {
		return nil, fmt.Errorf("resolve ollama binary: %w", err)
	}
	base := llm.OllamaURL(cfg)
	return process.Start(ctx, process.ServiceConfig{
		Name:         "ollama",
		Command:      bin,
		Args:         []string{"serve"},
		Env:          []string{"OLLAMA_HOST=" + ollamaListenAddr(base)},
		ReadyURL:     strings.TrimRight(base, "/") + "/api/tags",
		ReadyTimeout: 2 * time.Minute,
		StopTimeout:  5 * time.Second,
		Logger:       logger.With("component", "launcher", "service", "ollama"),
	})
}

func stopManagedServices(ctx context.Context, services []*process.ManagedService, logger *slog.Logger) {
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(ctx); err != nil && logger != nil {
			logger.Warn("launcher: service shutdown returned error", "error", err)
		}
	}
}

// ollamaListenAddr turns the client URL into the host:port ollama binds to.
func ollamaListenAddr(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return "127.0.0.1:11434"
	}
	if parsed.Port() == "" {
		return parsed.Hostname() + ":11434"
	}
	return parsed.Host
}
