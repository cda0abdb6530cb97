package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	auth "github.com/naturemart/auth-service"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.sl.Sync()

	logger.Info("starting auth service on %s (%s)", cfg.Server.Addr, cfg.App.Environment)

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DB.DSN)
	if err != nil {
		logger.Error("failed to open database: %v", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := auth.RunMigrations(ctx, db); err != nil {
		cancel()
		logger.Error("failed to run migrations: %v", err)
		os.Exit(1)
	}
	cancel()

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	secrets := auth.NewSecretProvider(secretSource(cfg)).WithLogger(logger)

	codec := auth.NewTokenCodec(secrets).
		WithLogger(logger).
		WithIssuer(cfg.Tokens.Issuer).
		WithLifetimes(
			cfg.Tokens.AccessTTL,
			cfg.Tokens.RefreshTTL,
			cfg.Tokens.ResetTTL,
			cfg.Tokens.VerificationTTL,
		)

	auther := auth.NewAuthenticator(repo.Users(), codec).WithLogger(logger)
	guard := auth.NewSessionGuard(codec, repo.Users()).WithLogger(logger)

	renderer, err := auth.NewEmailRenderer()
	if err != nil {
		logger.Error("failed to load email templates: %v", err)
		os.Exit(1)
	}

	mailer := buildMailer(cfg, logger)
	files := auth.NewDiskFileStore(cfg.Uploads.Dir, cfg.Uploads.BasePath).WithLogger(logger)

	controller := auth.NewHTTPController(repo, auther, codec, guard).
		WithLogger(logger).
		WithMailer(mailer, renderer, cfg.App.BaseURL).
		WithFileStore(files).
		WithEnvironment(cfg.App.Environment).
		WithDebug(cfg.App.Debug)

	app := fiber.New(fiber.Config{
		AppName:      "auth-service",
		ErrorHandler: auth.ErrorHandler(logger),
	})

	app.Static(cfg.Uploads.BasePath, cfg.Uploads.Dir)

	controller.RegisterRoutes(app)

	app.Use(auth.NotFoundHandler())

	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			logger.Error("server stopped: %v", err)
		}
	}()

	sig := waitExitSignal()
	logger.Info("received %s, shutting down", sig)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error: %v", err)
	}
}

func secretSource(cfg *Config) auth.SecretSource {
	env := auth.EnvSecretSource()
	return func(kind auth.SecretKind) string {
		switch kind {
		case auth.SecretRefresh:
			if cfg.Secrets.RefreshKey != "" {
				return cfg.Secrets.RefreshKey
			}
		default:
			if cfg.Secrets.AccessKey != "" {
				return cfg.Secrets.AccessKey
			}
		}
		return env(kind)
	}
}

func buildMailer(cfg *Config, logger *zapLogger) auth.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Warn("no SMTP host configured, using debug mailer")
		return auth.DebugMailer{Logger: logger}
	}

	mailer, err := auth.NewSMTPMailer(auth.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	if err != nil {
		logger.Error("failed to create SMTP mailer, using debug mailer: %v", err)
		return auth.DebugMailer{Logger: logger}
	}

	return mailer.WithLogger(logger)
}

// zapLogger adapts zap onto the printf-style logger the library expects
type zapLogger struct {
	sl *zap.SugaredLogger
}

func buildLogger(cfg *Config) (*zapLogger, error) {
	var zl *zap.Logger
	var err error

	if cfg.IsProduction() {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return &zapLogger{sl: zl.Sugar()}, nil
}

func (l *zapLogger) Debug(format string, args ...any) { l.sl.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...any)  { l.sl.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...any)  { l.sl.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...any) { l.sl.Errorf(format, args...) }

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	return <-ch
}
