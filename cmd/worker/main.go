// Command worker runs a Temporal worker hosting the contribution
// evaluation pipeline. Configuration comes from the environment, with an
// optional .env file for local development:
//
//	TEMPORAL_HOST_PORT   Temporal frontend address (default 127.0.0.1:7233)
//	TEMPORAL_NAMESPACE   Temporal namespace (default "default")
//	TASK_QUEUE           task queue name (default "contribution-evaluation")
//	AGENT_BASE_URL       reasoning-agent service root (required)
//	AGENT_TOKEN          bearer token for the agent service (optional)
//	GRID_FILE            YAML grid set layered over the built-ins (optional)
//	REDIS_ADDR           enables the Redis response cache when set (optional)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/cache"
	"github.com/pulseboard/contribeval/internal/agent/providers"
	"github.com/pulseboard/contribeval/internal/worker"
	"github.com/pulseboard/contribeval/pkg/events"
)

const defaultTaskQueue = "contribution-evaluation"

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	agentURL := os.Getenv("AGENT_BASE_URL")
	if agentURL == "" {
		return fmt.Errorf("AGENT_BASE_URL must be set")
	}

	runner, err := providers.NewHTTPRunner(providers.HTTPConfig{
		BaseURL: agentURL,
		Token:   os.Getenv("AGENT_TOKEN"),
	})
	if err != nil {
		return fmt.Errorf("agent runner: %w", err)
	}

	agentCfg := agent.DefaultConfig()
	agentCfg.Logger = logger
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		agentCfg.Cache = agent.CacheConfig{
			Enabled: true,
			TTL:     cache.DefaultTTL,
			Store:   cache.NewRedisStore(rdb),
		}
	}

	caller, err := worker.InitializeCaller(runner, agentCfg)
	if err != nil {
		return err
	}

	var gridFiles []string
	if path := os.Getenv("GRID_FILE"); path != "" {
		gridFiles = append(gridFiles, path)
	}
	registry, err := worker.InitializeRegistry(gridFiles...)
	if err != nil {
		return err
	}

	hostPort := os.Getenv("TEMPORAL_HOST_PORT")
	if hostPort == "" {
		hostPort = client.DefaultHostPort
	}
	namespace := os.Getenv("TEMPORAL_NAMESPACE")
	if namespace == "" {
		namespace = client.DefaultNamespace
	}

	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    sdklog.NewStructuredLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	taskQueue := os.Getenv("TASK_QUEUE")
	if taskQueue == "" {
		taskQueue = defaultTaskQueue
	}

	w := sdkworker.New(c, taskQueue, sdkworker.Options{})
	worker.RegisterAll(w, caller, registry, events.NewNoOpEventSink())

	logger.Info("worker starting",
		"task_queue", taskQueue,
		"grids", registry.AvailableTypes(),
		"cache", agentCfg.Cache.Enabled)

	// Blocks until SIGINT/SIGTERM.
	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}
