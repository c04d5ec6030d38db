package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authgrpc "github.com/codetrust-ai/codetrust-api/app/grpc"
	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/app/notifier"
	"github.com/codetrust-ai/codetrust-api/app/oauth"
	"github.com/codetrust-ai/codetrust-api/app/repository"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const (
	shutdownTimeout    = 10 * time.Second
	tokenPurgeInterval = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (and the gRPC server when enabled)",
	Long:  `Start the Echo HTTP server and, when GRPC_ENABLED is set, the gRPC server for the authentication backend.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(db)
	resetTokenRepo := repository.NewResetTokenRepository(db)
	identityRepo := repository.NewFederatedIdentityRepository(db)
	store := repository.NewCredentialStore(db)
	hasher := service.NewPasswordHasher(cfg.Password.BcryptCost)
	sessions := service.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)

	resetNotifier, err := newNotifier(cfg, m)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mail delivery")
	}

	resetService := service.NewPasswordResetService(userRepo, resetTokenRepo, store, hasher, resetNotifier, m, cfg)
	userAuthService := service.NewUserAuthService(userRepo, identityRepo, store, hasher, sessions, m, cfg)
	providers := oauth.NewRegistryFromConfig(cfg.OAuth, cfg.App.BaseURL)
	logrus.WithField("providers", providers.Names()).Info("OAuth providers configured")

	e := newHTTPServer(httpDeps{
		cfg:             cfg,
		registry:        registry,
		db:              store,
		sessions:        sessions,
		resetService:    resetService,
		userAuthService: userAuthService,
		providers:       providers,
	})

	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		grpcServer = startGRPCServer(cfg, resetService, userAuthService)
	}

	go purgeExpiredTokens(ctx, store, tokenPurgeInterval)

	go func() {
		logrus.WithField("addr", cfg.HTTPAddr()).Info("Starting HTTP server")
		if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func newNotifier(cfg *config.Config, m *metrics.Metrics) (notifier.Notifier, error) {
	if !cfg.SMTP.Enabled() {
		logrus.Warn("SMTP is not configured, reset links will be logged")
		return notifier.NewLogNotifier(logrus.StandardLogger()), nil
	}

	client, err := notifier.NewSMTPClient(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	return notifier.NewSMTPNotifier(client, cfg.SMTP.From, m,
		notifier.WithExpiryText(notifier.ExpiryText(cfg.Tokens.ResetTTL)),
	), nil
}

func startGRPCServer(cfg *config.Config, resetService service.PasswordResetService, userAuthService service.UserAuthService) *grpc.Server {
	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(authgrpc.LoggingUnaryInterceptor()))
	authgrpc.RegisterAuthServiceServer(grpcServer, authgrpc.NewAuthServer(resetService, userAuthService))

	go func() {
		logrus.WithField("addr", cfg.GRPCAddr()).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Error("gRPC server stopped")
		}
	}()
	return grpcServer
}

type tokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

func purgeExpiredTokens(ctx context.Context, store tokenPurger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpiredResetTokens(ctx, time.Now().UTC())
			if err != nil {
				logrus.WithError(err).Warn("Failed to purge expired reset tokens")
				continue
			}
			if purged > 0 {
				logrus.WithField("purged", purged).Info("Purged expired reset tokens")
			}
		}
	}
}
