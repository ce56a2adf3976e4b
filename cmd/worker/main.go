// Command worker runs the Temporal worker hosting the clip workflows and
// activities.
package main

import (
	"fmt"
	"log/slog"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"go.temporal.io/sdk/client"
	sdktally "go.temporal.io/sdk/contrib/tally"
	sdklog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/mstreet/couponclip/internal/adapter/driven/freshop"
	sqliteadapter "github.com/mstreet/couponclip/internal/adapter/driven/sqlite"
	"github.com/mstreet/couponclip/internal/clip"
	"github.com/mstreet/couponclip/internal/config"
	"github.com/mstreet/couponclip/internal/secret"
	"github.com/mstreet/couponclip/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration; the worker cannot run without encryption secrets.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasEncryptionSecrets() {
		return fmt.Errorf("COUPONCLIP_MASTER_KEY and COUPONCLIP_SALT must be set")
	}
	slog.Info("config loaded",
		"temporal", cfg.TemporalHostPort,
		"namespace", cfg.TemporalNamespace,
		"db_path", cfg.DBPath,
		"api_base_url", cfg.APIBaseURL,
		"metrics_addr", cfg.MetricsAddr,
	)

	cipher, err := secret.NewCipher(cfg.MasterKey, cfg.SaltBase64)
	if err != nil {
		return err
	}

	// 2. Open database and run migrations.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 3. Wire adapters.
	accountStore := sqliteadapter.NewAccountRepo(db)
	couponClient := freshop.NewClient(cfg.APIBaseURL, cfg.AppKey)

	// 4. Metrics scope for the Temporal client.
	scope, scopeCloser, err := telemetry.NewPrometheusScope(cfg.MetricsAddr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := scopeCloser.Close(); closeErr != nil {
			slog.Error("error closing metrics scope", "error", closeErr)
		}
	}()

	// 5. Connect to Temporal.
	c, err := client.Dial(client.Options{
		HostPort:       cfg.TemporalHostPort,
		Namespace:      cfg.TemporalNamespace,
		Logger:         sdklog.NewStructuredLogger(slog.Default()),
		MetricsHandler: sdktally.NewMetricsHandler(scope),
	})
	if err != nil {
		return fmt.Errorf("dial temporal at %s: %w", cfg.TemporalHostPort, err)
	}
	defer c.Close()

	// 6. Register workflows and activities, then run until interrupted.
	w := worker.New(c, clip.TaskQueue, worker.Options{})
	w.RegisterWorkflow(clip.ClipCouponsWorkflow)
	w.RegisterWorkflow(clip.ClipAccountCouponsWorkflow)
	w.RegisterActivity(clip.NewActivities(accountStore, couponClient, cipher))

	slog.Info("worker starting", "task_queue", clip.TaskQueue)
	return w.Run(worker.InterruptCh())
}
