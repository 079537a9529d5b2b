package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"loan-intake/internal/common/auth"
	awsclient "loan-intake/internal/common/aws"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/database"
	"loan-intake/internal/common/dispatch"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/mail"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/common/session"
	"loan-intake/internal/server"

	sn "loan-intake/internal/workers/application/send-notification"
	sld "loan-intake/internal/workers/application/store-loan-document"
	vad "loan-intake/internal/workers/application/validate-application-data"
	as "loan-intake/internal/workers/auth/admin-session"
	sar "loan-intake/internal/workers/communication/send-auto-reply"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting loan intake service...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Session store ---
	var kv session.KV
	var healthChecks []server.HealthCheck
	if cfg.Session.Store == config.SessionStoreRedis {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		kv = redis
		healthChecks = append(healthChecks, server.HealthCheck{Name: "redis", Check: redis.Ping})
	}

	store, err := session.New(cfg.Session, cfg.App.IsProduction(), kv)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}

	verifier, err := auth.NewFromConfig(cfg.Auth)
	if err != nil {
		zapLog.Fatal("admin credential verifier init failed", zap.Error(err))
	}

	// --- Outbound notifications ---
	transport, err := newMailer(ctx, cfg)
	if err != nil {
		zapLog.Fatal("mailer init failed", zap.Error(err))
	}
	// Each dispatch kind trips on its own so an applicant-side outage never
	// silences staff notifications.
	breakerFor := func(kind string) *mail.BreakerMailer {
		return mail.NewBreakerMailer(transport, mail.BreakerConfig{
			Name:             kind,
			FailureThreshold: cfg.Mail.Breaker.FailureThreshold,
			Delay:            config.GetDuration(cfg.Mail.Breaker.DelayMS),
		}, log)
	}

	var snsClient awsclient.SNSAPI
	if cfg.Notifications.SMS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Notifications.SMS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		snsClient = client
	}

	// --- Workers ---
	documents := sld.NewHandler(&sld.Config{
		Dir:       cfg.Upload.Dir,
		FieldName: cfg.Upload.FieldName,
		DirMode:   0o755,
		FileMode:  0o644,
	}, clockwork.NewRealClock(), log)
	if err := documents.EnsureDir(); err != nil {
		zapLog.Fatal("upload directory unavailable", zap.Error(err))
	}

	notifier := sn.NewHandler(&sn.Config{
		From:       mail.Address{Name: cfg.Notifications.NotifierName, Email: cfg.Mail.FromAddress},
		Recipient:  cfg.Notifications.Recipient,
		SMSEnabled: cfg.Notifications.SMS.Enabled,
		StaffPhone: cfg.Notifications.SMS.StaffPhone,
	}, breakerFor(metrics.KindNotificationEmail), snsClient, documents, log)

	autoReplier := sar.NewHandler(&sar.Config{
		Brand:        cfg.Notifications.Brand,
		From:         mail.Address{Name: cfg.Notifications.Brand, Email: cfg.Mail.FromAddress},
		ContactPhone: cfg.Notifications.ContactPhone,
	}, breakerFor(metrics.KindAutoReplyEmail), clockwork.NewRealClock(), log)

	sessions := as.NewHandler(&as.Config{
		CookieName: cfg.Session.CookieName,
		LoginPath:  "/login.html",
	}, store, verifier, log)

	queue := dispatch.New(cfg.Dispatch, log, obs)

	srv := server.NewServer(cfg, server.Dependencies{
		Validator:    vad.NewHandler(vad.LoadConfig(), log),
		Documents:    documents,
		Notifier:     notifier,
		AutoReplier:  autoReplier,
		Sessions:     sessions,
		Queue:        queue,
		HealthChecks: healthChecks,
	}, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()
	zapLog.Info("Loan intake service started", zap.String("address", cfg.Server.Address()))

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests and notifications...")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeoutMS))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("pending notifications abandoned", zap.Error(err))
	}

	zapLog.Info("Loan intake service stopped")
}

func newMailer(ctx context.Context, cfg *config.Config) (mail.Mailer, error) {
	switch cfg.Mail.Provider {
	case config.MailProviderSES:
		client, err := awsclient.NewSESClient(ctx, cfg.Mail.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return mail.NewSESMailer(client), nil
	default:
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:       cfg.Mail.SMTP.Host,
			Port:       cfg.Mail.SMTP.Port,
			Username:   cfg.Mail.SMTP.Username,
			Password:   cfg.Mail.SMTP.Password,
			RequireTLS: cfg.Mail.SMTP.UseTLS,
		}), nil
	}
}
