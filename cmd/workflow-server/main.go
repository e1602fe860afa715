package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/norrin/workflow-engine/httpapi"
	"github.com/norrin/workflow-engine/integrations"
	"github.com/norrin/workflow-engine/internal/logging"
	"github.com/norrin/workflow-engine/llm"
	"github.com/norrin/workflow-engine/observe"
	observesqlite "github.com/norrin/workflow-engine/observe/store/sqlite"
	providerfactory "github.com/norrin/workflow-engine/providers/factory"
	cronpkg "github.com/norrin/workflow-engine/runtime/cron"
	statefactory "github.com/norrin/workflow-engine/state/factory"
	"github.com/norrin/workflow-engine/tools"
	"github.com/norrin/workflow-engine/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Best-effort: a missing .env is normal outside local development, so
	// the error is swallowed rather than failing startup.
	_ = godotenv.Load()

	if path := strings.TrimSpace(os.Getenv("AGENT_INTEGRATION_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read integration config: %v", err)
		}
		if err := integrations.LoadConfigYAML(raw); err != nil {
			log.Fatalf("load integration config: %v", err)
		}
	}

	provider, err := providerfactory.FromEnv(ctx)
	if err != nil {
		log.Fatalf("provider setup failed: %v", err)
	}

	store, err := statefactory.FromEnv(ctx)
	if err != nil {
		log.Fatalf("state store setup failed: %v", err)
	}
	defer store.Close()

	observer, closeObserver := buildObserver()
	defer closeObserver()

	gateway := llm.NewGateway(provider)
	registry := integrations.NewRegistry()

	engine, err := workflow.NewEngine(gateway, registry, store, workflow.WithObserver(observer))
	if err != nil {
		log.Fatalf("engine setup failed: %v", err)
	}

	// Each cron-triggered job runs as its own fresh workflow thread; the
	// job's configured input becomes the chat request and the final summary
	// (or the awaiting-approval notice) becomes the run's recorded output.
	scheduler := cronpkg.New(func(cfg cronpkg.JobConfig) (string, error) {
		g, err := engine.Start(ctx, workflow.StartRequest{
			ThreadID: uuid.NewString(),
			Request:  cfg.Input,
		})
		if err != nil {
			return "", err
		}
		if g.AwaitingApproval {
			return "awaiting approval at step " + strconv.Itoa(g.ApprovalStepInfo.StepNumber), nil
		}
		if g.Plan != nil {
			return g.Plan.FinalSummary, nil
		}
		return "", nil
	})
	scheduler.Start()
	defer scheduler.Stop()

	_ = tools.RegisterTool("cron_manager",
		"Manage cron-scheduled workflow runs: list, add, remove, trigger, enable, disable recurring requests.",
		func() tools.Tool { return tools.NewCronManager(scheduler) },
	)

	addr := strings.TrimSpace(os.Getenv("AGENT_WORKFLOW_ADDR"))
	server := httpapi.NewServer(httpapi.Config{Addr: addr, Engine: engine})

	logging.Info("workflow server starting", "addr", addr, "integrations", logging.Count(len(integrations.AllConfigs())))
	if err := server.ListenAndServe(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}

func buildObserver() (observe.Sink, func()) {
	if !parseBoolEnv("AGENT_OBSERVE_ENABLED", true) {
		return observe.NoopSink{}, func() {}
	}
	dbPath := strings.TrimSpace(os.Getenv("AGENT_DEVUI_DB_PATH"))
	if dbPath == "" {
		dbPath = "./.ai-agent/devui.db"
	}
	traceStore, err := observesqlite.New(dbPath)
	if err != nil {
		log.Printf("observer disabled: %v", err)
		return observe.NoopSink{}, func() {}
	}
	async := observe.NewAsyncSink(observe.SinkFunc(func(ctx context.Context, event observe.Event) error {
		return traceStore.SaveEvent(ctx, event)
	}), 256)
	return async, func() {
		async.Close()
		_ = traceStore.Close()
	}
}

func parseBoolEnv(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
