package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/njprem/Session_Auth_BackEnd/internal/config"
	"github.com/njprem/Session_Auth_BackEnd/internal/logging"
	"github.com/njprem/Session_Auth_BackEnd/internal/media"
	"github.com/njprem/Session_Auth_BackEnd/internal/observability"
	storage "github.com/njprem/Session_Auth_BackEnd/internal/repository/minio"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/postgres"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/redisstore"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	httpapi "github.com/njprem/Session_Auth_BackEnd/internal/transport/http"
	"github.com/njprem/Session_Auth_BackEnd/internal/transport/mail"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logCloser, err := logging.Init(logging.Settings{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		LogstashAddr: cfg.LogstashTCPAddr,
		Service:      cfg.OTELServiceName,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()

	meterProvider, err := observability.InitMeterProvider(ctx, observability.Settings{
		Endpoint:    cfg.OTELEndpoint,
		Insecure:    cfg.OTELInsecure,
		ServiceName: cfg.OTELServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := meterProvider.Shutdown(flushCtx); err != nil {
			logrus.WithError(err).Warn("meter provider shutdown")
		}
	}()
	metrics, err := observability.NewMetrics(meterProvider)
	if err != nil {
		return err
	}

	tokenCfg, err := cfg.TokenConfig()
	if err != nil {
		return fmt.Errorf("jwt settings: %w", err)
	}
	tokens := util.NewJWTManager(tokenCfg)

	db, err := postgres.New(cfg.DatabaseURL, postgres.PoolOptions{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unavailable, login throttling fails open")
	}

	minioClient, err := storage.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		return fmt.Errorf("minio client: %w", err)
	}
	objects := storage.NewStorage(minioClient, cfg.MinIOPublicURL)
	if err := objects.EnsureBucket(ctx, cfg.MinIOBucketMedia); err != nil {
		logrus.WithError(err).WithField("bucket", cfg.MinIOBucketMedia).Warn("unable to ensure media bucket")
	}

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	resetRepo := postgres.NewPasswordResetRepo(db)
	mediaRepo := postgres.NewMediaRepo(db)

	throttle := redisstore.NewLoginThrottle(rdb, "login_throttle", redisstore.ThrottlePolicy{
		MaxAttempts: cfg.LoginMaxAttempts,
		Window:      cfg.LoginAttemptWindow,
		Lockout:     cfg.LoginLockout,
	})
	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.AppName, cfg.SMTPUseTLS)

	authService := service.NewAuthService(userRepo, sessionRepo, tokens, service.AuthServiceConfig{
		GoogleAudience: cfg.GoogleAudience,
		PageSize:       cfg.PaginationLimit,
		Throttle:       throttle,
		Metrics:        metrics,
	})
	passwordService := service.NewPasswordService(userRepo, resetRepo, tokens, authService, mailer, service.PasswordServiceConfig{
		CodeTTL:    cfg.PasswordResetTTL,
		CodeLength: cfg.PasswordResetOTP,
	})
	userService := service.NewUserService(userRepo, mediaRepo, authService, cfg.PaginationLimit)
	mediaService := service.NewMediaService(mediaRepo, objects, service.MediaServiceConfig{
		Bucket:            cfg.MinIOBucketMedia,
		MaxBytes:          cfg.MediaMaxBytes,
		ImageProcessor:    media.NewFFMPEGProcessor(cfg.FFMPEGPath, cfg.MediaMaxDim),
		ImageMaxDimension: cfg.MediaMaxDim,
	})

	e := httpapi.NewRouter(httpapi.RouterConfig{
		AllowOrigins:  cfg.AllowOrigins,
		RefreshHeader: cfg.RefreshTokenHeader,
		AccessHeader:  cfg.AccessTokenHeader,
		SessionAuth: httpapi.SessionAuth(authService, httpapi.SessionAuthConfig{
			RefreshHeader: cfg.RefreshTokenHeader,
			AccessHeader:  cfg.AccessTokenHeader,
			LookupTimeout: cfg.SessionLookupTimeout,
			Metrics:       metrics,
		}),
		HealthChecks: map[string]httpapi.HealthCheck{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})
	e.Debug = cfg.Debug
	httpapi.RegisterAuth(e, authService, passwordService)
	httpapi.RegisterSessions(e, authService)
	httpapi.RegisterUsers(e, userService)
	httpapi.RegisterMedia(e, mediaService)
	httpapi.RegisterSwagger(e)
	httpapi.RegisterPages(e, cfg.AppName, cfg.AccessTokenHeader, cfg.RefreshTokenHeader)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithField("port", cfg.Port).Info("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logrus.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
