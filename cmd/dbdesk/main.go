// Command dbdesk serves the MySQL data-access core over HTTP.
//
//	dbdesk -config dbdesk.yaml
//
// Settings come from the YAML file and DBDESK_* environment variables.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/dbdesk/internal/config"
	"github.com/koustreak/dbdesk/internal/database/mysql"
	"github.com/koustreak/dbdesk/internal/export"
	"github.com/koustreak/dbdesk/internal/filestore/minio"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/server"
	"github.com/koustreak/dbdesk/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("DBDESK_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Global().Fatal("load config: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.ErrorWith("dbdesk stopped", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	svc := service.New(mysql.NewOpener(cfg.DatabaseOptions()), service.Options{
		Logger:             log.With().Str("component", "service").Logger(),
		StrictTransactions: cfg.Database.StrictTransactions,
	})
	defer svc.Disconnect()

	if cfg.AutoConnect() {
		if err := svc.Connect(ctx, cfg.Connection); err != nil {
			// the server still starts; clients can POST /connect later
			log.WarnWith("startup connection failed", err, nil)
		}
	}

	opts := server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       log,
	}
	if cfg.ExportEnabled() {
		exp, err := newExporter(ctx, cfg, log)
		if err != nil {
			return err
		}
		opts.Exporter = exp
	}

	srv := server.New(svc, opts)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newExporter(ctx context.Context, cfg *config.Config, log *logger.Logger) (*export.Exporter, error) {
	fsCfg := cfg.FileStore()
	store, err := minio.New(ctx, fsCfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx, fsCfg.DefaultBucket); err != nil {
		return nil, err
	}
	log.InfoWith("export enabled", map[string]interface{}{
		"endpoint": fsCfg.Endpoint,
		"bucket":   fsCfg.DefaultBucket,
	})
	return export.New(store, export.Options{
		Bucket: fsCfg.DefaultBucket,
		URLTTL: cfg.Export.URLTTL,
		Logger: log,
	})
}
