package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/chat"
	"github.com/xxxsen/insintel/internal/config"
	"github.com/xxxsen/insintel/internal/filestore"
	"github.com/xxxsen/insintel/internal/handler"
	"github.com/xxxsen/insintel/internal/job"
	"github.com/xxxsen/insintel/internal/metrics"
	"github.com/xxxsen/insintel/internal/middleware"
	"github.com/xxxsen/insintel/internal/schedule"
	"github.com/xxxsen/insintel/internal/service"
	"github.com/xxxsen/insintel/internal/web"
)

func main() {
	// a missing .env is fine; the environment may be set some other way
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "insintel",
		Short: "insurance competitive intelligence web client",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the chat ui and api proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(runCmd, newQueryCmd(), newDocumentsCmd())

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Bool("archive", cfg.Archive.Enabled),
	)

	recorder := metrics.New()
	client := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout()),
		backend.WithMetrics(recorder),
	)

	var archiver service.Archiver
	if cfg.Archive.Enabled {
		store, err := filestore.New(cfg.Archive)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
		archiver = filestore.NewArchiver(store)
	}

	documentService := service.NewDocumentService(client, archiver, recorder)
	queryService := service.NewQueryService(client)

	secret, err := sessionSecret(cfg.Chat.SessionSecret)
	if err != nil {
		return err
	}
	manager := chat.NewManager(
		chat.NewServiceBackend(documentService, queryService),
		cfg.Chat.MaxSessions,
		cfg.Chat.SessionTTL(),
		chat.WithStatusReset(cfg.Chat.StatusReset()),
	)
	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	probeStatus := job.NewProbeStatus()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !cfg.Probe.Disabled {
		scheduler := schedule.NewCronScheduler()
		probe := job.NewBackendProbeJob(client, probeStatus, cfg.Probe.Timeout())
		if err := scheduler.AddJob(probe, cfg.Probe.Spec); err != nil {
			return fmt.Errorf("schedule backend probe: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	deps := handler.RouterDeps{
		Documents:   handler.NewDocumentHandler(documentService, cfg.Upload.MaxBytes()),
		Queries:     handler.NewQueryHandler(queryService),
		Chat:        handler.NewChatHandler(chat.NewViewer(cfg.Chat.PreviewChars), renderer, cfg.Upload.MaxBytes()),
		Health:      handler.NewHealthHandler(probeStatus),
		ChatSession: middleware.ChatSession(manager, secret, cfg.Chat.SessionTTL(), 0),
		Metrics:     recorder.Handler(),
	}

	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// sessionSecret falls back to a per-process key, which logs every browser
// out on restart.
func sessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	logutil.GetLogger(context.Background()).Warn("chat.session_secret not set, using a random key")
	return []byte(hex.EncodeToString(buf)), nil
}
