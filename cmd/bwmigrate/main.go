// File path: cmd/bwmigrate/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nicodishanthj/Katral_bw/internal/api"
	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/common/process"
	"github.com/nicodishanthj/Katral_bw/internal/data/stores"
	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/kb"
	"github.com/nicodishanthj/Katral_bw/internal/llm"
	"github.com/nicodishanthj/Katral_bw/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bwmigrate:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := common.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Warn("bwmigrate: .env file not loaded", "error", err)
	} else {
		logger.Info("bwmigrate: environment loaded from .env")
	}

	cfg, err := workflow.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	input := flag.String("input", cfg.InputRoot, "directory whose immediate children are process folders")
	output := flag.String("output", cfg.OutputRoot, "directory receiving generated projects and the report")
	concurrency := flag.Int("concurrency", cfg.Concurrency, "maximum process units in flight")
	architecture := flag.String("architecture", string(cfg.Architecture), "generated layout: layered or hexagonal")
	serviceType := flag.String("service-type", cfg.ServiceType, "override inferred styles: rest, soap or combined (empty infers)")
	packageRoot := flag.String("package-root", cfg.PackageRoot, "Java package root of generated projects")
	validate := flag.Bool("validate", cfg.Validate, "compile generated projects with Maven or Gradle")
	pack := flag.Bool("package", cfg.Package, "zip generated projects")
	serve := flag.String("serve", "", "serve the inspection API on this address after the run (e.g. :8081)")
	startOllama := flag.Bool("start-ollama", false, "launch a local ollama server for embeddings")
	flag.Parse()

	cfg.InputRoot = strings.TrimSpace(*input)
	cfg.OutputRoot = strings.TrimSpace(*output)
	cfg.Concurrency = *concurrency
	cfg.Architecture = ir.Architecture(*architecture)
	cfg.ServiceType = *serviceType
	cfg.PackageRoot = *packageRoot
	cfg.Validate = *validate
	cfg.Package = *pack
	if cfg.InputRoot == "" && flag.NArg() > 0 {
		cfg.InputRoot = flag.Arg(0)
	}

	llmCfg := llm.LoadConfig()
	if *startOllama {
		svc, err := startOllamaService(ctx, llmCfg, logger)
		if err != nil {
			return err
		}
		defer stopManagedServices(context.Background(), []*process.ManagedService{svc}, logger)
		if llmCfg.Provider == "auto" && llmCfg.OllamaHost == "" {
			llmCfg.OllamaHost = llm.OllamaURL(llmCfg)
		}
	}
	embedder, err := llm.NewEmbedder(llmCfg)
	if err != nil {
		return err
	}
	backend := kb.SelectBackend(embedder)
	logger.Info("bwmigrate: embedding backend selected", "backend", backend.Name())

	storeCfg, err := stores.LoadConfig()
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	st, err := stores.New(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("bwmigrate: closing stores failed", "error", err)
		}
	}()
	if mirror := st.Vector(); mirror != nil {
		logger.Info("bwmigrate: chromadb mirror configured", "collection", mirror.Collection(), "available", mirror.Available())
	}

	leader, err := workflow.NewLeader(cfg,
		workflow.WithBackend(backend),
		workflow.WithMirror(st.Vector()),
		workflow.WithRecorder(st.Catalog()),
		workflow.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	report, err := leader.Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d folder(s), %d failure(s), %d generated file(s). Report: %s\n",
		len(report.ProcessedFolders()), len(report.Failures), len(report.GeneratedFiles()),
		filepath.Join(report.OutputRoot, workflow.ReportFileName))
	for _, failure := range report.Failures {
		fmt.Printf("  FAILED %s (%s): %s\n", failure.ProcessName, failure.Folder, failure.Error)
	}

	if addr := strings.TrimSpace(*serve); addr != "" {
		return serveAPI(ctx, addr, leader, st.Catalog())
	}
	return nil
}

func serveAPI(ctx context.Context, addr string, leader *workflow.Leader, catalog stores.Catalog) error {
	logger := common.Logger()
	var runs api.RunCatalog
	if catalog != nil {
		runs = catalog
	}
	server, err := api.NewServer(leader, runs)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	httpServer := &http.Server{Addr: addr, Handler: server}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()
	reachable := addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("bwmigrate: server listening", "addr", addr, "suggestion", fmt.Sprintf("curl http://%s/v1/report", reachable))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
