package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/chemtk"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/database/postgres"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/database/redis"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
	apihttp "github.com/turtacn/MetaTree-Curator/internal/interfaces/http"
	"github.com/turtacn/MetaTree-Curator/internal/interfaces/http/handlers"
	"github.com/turtacn/MetaTree-Curator/internal/interfaces/http/middleware"
)

// NewServeCmd creates the serve command: the blueprint API server backed by
// PostgreSQL, with Redis-cached toolkit calls.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blueprint API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cliCtx)
		},
	}
}

func runServer(ctx context.Context, cliCtx *CLIContext) error {
	cfg := cliCtx.Config
	logger := cliCtx.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	metrics := prometheus.NewCuratorMetrics(collector)

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Migrate(); err != nil {
		return err
	}
	repo := repositories.NewBlueprintRepository(conn.Pool(), logger)

	client, err := chemtk.NewClient(cfg.ChemTk, metrics, logger)
	if err != nil {
		return err
	}
	var toolkit chem.Toolkit = client

	// The toolkit cache is optional; the server runs uncached when Redis is
	// unreachable.
	pingers := map[string]handlers.Pinger{"postgres": conn}
	cache, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, toolkit results will not be cached", logging.Err(err))
	} else {
		defer cache.Close()
		toolkit = chemtk.NewCachingToolkit(client, cache, cfg.ChemTk.CacheTTL, logger)
		pingers["redis"] = cache
	}

	routerCfg := apihttp.RouterConfig{
		BlueprintHandler:  handlers.NewBlueprintHandler(repo, toolkit, metrics, logger),
		HealthHandler:     handlers.NewHealthHandler(pingers),
		LoggingMiddleware: middleware.NewLoggingMiddleware(logger, metrics),
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
	}

	server := apihttp.NewServer(cfg.Server, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	return server.Stop(context.Background())
}
