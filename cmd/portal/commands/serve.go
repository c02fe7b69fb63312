package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crew-portal/internal/audit"
	awsclient "crew-portal/internal/common/aws"
	"crew-portal/internal/common/config"
	"crew-portal/internal/common/database"
	backend "crew-portal/internal/common/http"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/common/observability"
	"crew-portal/internal/inbox"
	"crew-portal/internal/notify"
	"crew-portal/internal/services"
	"crew-portal/internal/session"
	"crew-portal/internal/web"
	"crew-portal/pkg/registry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal web server",
		Long: `Run the crew and admin portal.

The server stops on SIGINT or SIGTERM. Open inbox streams are ended first,
then in-flight requests get up to 30 seconds to finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if cfg.App.Version == "dev" && Version != "dev" {
		cfg.App.Version = Version
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)
	log.Info("starting crew portal", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		TracingEnabled: cfg.Observability.TracingEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)
	defer obs.Shutdown()

	// --- Redis: sessions and unread counts ---
	rc, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := database.RetryWithBackoff(ctx, log, "Redis connection", 10, 2*time.Second, func() error {
		return rc.Ping(ctx)
	}); err != nil {
		return err
	}
	log.Info("redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})

	checks := map[string]database.Pinger{"redis": rc}
	var observers services.Observers

	// --- PostgreSQL: audit trail (optional) ---
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := database.RetryWithBackoff(ctx, log, "PostgreSQL connection", 15, 2*time.Second, func() error {
			return pg.Ping(ctx)
		}); err != nil {
			return err
		}
		auditStore = audit.NewStore(pg.DB, log)
		if err := auditStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("audit schema: %w", err)
		}
		observers = append(observers, auditStore)
		checks["postgres"] = auditStore
		log.Info("audit trail enabled", nil)
	}

	// --- SES / SNS: crew notifications (optional) ---
	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	if notifier != nil {
		observers = append(observers, notifier)
	}

	var observer services.Observer
	if len(observers) > 0 {
		observer = observers
	}

	svc := web.NewServices(backend.NewClient(cfg.Backend, log), observer)
	sessions := session.NewStore(rc.Client, config.GetDuration(cfg.Session.TTL))
	poller := inbox.NewPoller(svc.Support, rc.Client, config.GetDuration(cfg.Inbox.PollInterval), log)

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("section registry: %w", err)
	}

	srv, err := web.New(web.Deps{
		Config:        cfg,
		Logger:        log,
		Services:      svc,
		Sessions:      sessions,
		Poller:        poller,
		Registry:      reg,
		Audit:         auditStore,
		Observability: obs,
		Checks:        checks,
	})
	if err != nil {
		return err
	}

	serveErr := srv.Start(ctx)

	log.Info("stopping background work", nil)
	poller.Close()
	if notifier != nil {
		notifier.Wait()
	}

	if serveErr != nil {
		log.Error("portal stopped with error", map[string]interface{}{"error": serveErr})
		return serveErr
	}
	log.Info("portal stopped gracefully", nil)
	return nil
}

// buildNotifier returns nil when both channels are off.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Notifier, error) {
	n := cfg.Notifications
	if !n.Email.Enabled && !n.SMS.Enabled {
		return nil, nil
	}

	var (
		email awsclient.EmailSender
		sms   awsclient.SMSPublisher
	)
	if n.Email.Enabled {
		c, err := awsclient.NewSESClient(ctx, n.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		email = c
	}
	if n.SMS.Enabled {
		c, err := awsclient.NewSNSClient(ctx, n.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		sms = c
	}

	log.Info("crew notifications enabled", map[string]interface{}{
		"email":  n.Email.Enabled,
		"sms":    n.SMS.Enabled,
		"region": n.AWS.Region,
	})
	return notify.New(notify.Options{
		EmailEnabled: n.Email.Enabled,
		FromEmail:    n.Email.FromEmail,
		SMSEnabled:   n.SMS.Enabled,
	}, email, sms, log), nil
}
