package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/config"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/database"
	grpcv1 "github.com/sithlordsylar/PPTX-Gen-Temp/internal/grpc/v1"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/handlers"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/metrics"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/repositories"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/router"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Инициализация конфигурации
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("Ошибка конфигурации", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Сервер остановлен с ошибкой", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	svc := service.NewGeneratorService(store, m, logger, cfg.DefaultPlaceholder, cfg.DefaultItemsPerSlide)
	handler := handlers.NewHandler(svc, logger, cfg.MaxUploadBytes())

	r, err := router.NewRouter(handler, logger, router.Options{
		Auth:          auth.New(cfg.SecretKey),
		Metrics:       m.Handler(),
		TrustedSubnet: cfg.TrustedSubnet,
		RateLimit:     cfg.RateLimit,
		TrustProxy:    cfg.TrustProxy,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var (
		grpcServer   *grpc.Server
		grpcListener net.Listener
	)
	if cfg.GRPCAddress != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPCAddress)
		if err != nil {
			return fmt.Errorf("listen gRPC on %s: %w", cfg.GRPCAddress, err)
		}
		// base64 раздувает шаблон примерно на треть
		grpcServer = grpcv1.NewServer(svc, logger, int(cfg.MaxUploadBytes())*2)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("address", cfg.ServerAddress),
			zap.Bool("https", cfg.EnableHTTPS), zap.String("mode", cfg.Mode))

		var err error
		if cfg.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("gRPC-сервер запущен", zap.String("address", cfg.GRPCAddress))
			return grpcServer.Serve(grpcListener)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Получен сигнал остановки, завершаем работу")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStorage выбирает журнал генераций по режиму конфигурации.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, func(), error) {
	switch cfg.Mode {
	case config.ModeDatabase:
		db, err := database.NewDB(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return repositories.NewGenerationRepository(db.Pool), db.Close, nil
	case config.ModeFile:
		return storage.NewFileStore(cfg.FileStoragePath, logger), func() {}, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}
