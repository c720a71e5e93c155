package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZJUSCT/CSArena/internal/api/admin"
	"github.com/ZJUSCT/CSArena/internal/api/user"
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/metrics"
	"github.com/ZJUSCT/CSArena/internal/oracle"
	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the user and admin API servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be set")
	}

	flush, err := setupLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer flush()
	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// database
	db, err := database.Init(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	zap.S().Infof("%s database initialized successfully", cfg.Storage.Driver)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zap.S().Warnf("redis at %s is unreachable, continuing: %v", cfg.Redis.Addr, err)
		}
	}

	verifier, err := buildOracle(cfg.Oracle, redisClient)
	if err != nil {
		return err
	}

	// live events
	broker := pubsub.NewBroker()
	publishers := pubsub.Multi{pubsub.NewLocal(broker)}
	if redisClient != nil {
		publishers = append(publishers, pubsub.NewRedis(redisClient, cfg.Redis.Channel))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k := pubsub.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer k.Close()
		publishers = append(publishers, k)
		zap.S().Infof("publishing events to kafka topic %s", cfg.Kafka.Topic)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := contest.NewService(db, cfg.Contest, verifier, publishers, metrics.New(reg))

	servers := []*http.Server{{
		Addr:    cfg.Listen,
		Handler: user.NewUserRouter(cfg, db, service, broker),
	}}
	if cfg.Admin.Enabled {
		servers = append(servers, &http.Server{
			Addr:    cfg.Admin.Listen,
			Handler: admin.NewAdminRouter(cfg, db, service, reg),
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			zap.S().Infof("starting server at %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server at %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	zap.S().Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Warnf("failed to shut down %s: %v", srv.Addr, err)
		}
	}
	return runErr
}

func buildOracle(cfg config.Oracle, redisClient *redis.Client) (oracle.Oracle, error) {
	var o oracle.Oracle
	switch cfg.Mode {
	case "", "trust":
		zap.S().Warn("verification oracle is in trust mode, claimed solves are accepted as is")
		return oracle.Trust{}, nil
	case "http":
		if cfg.Endpoint == "" {
			return nil, errors.New("oracle.endpoint must be set in http mode")
		}
		o = oracle.NewHTTP(cfg.Endpoint, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown oracle mode %q", cfg.Mode)
	}
	if redisClient != nil && cfg.CacheTTL > 0 {
		o = oracle.NewCached(o, redisClient, cfg.CacheTTL)
	}
	return o, nil
}
