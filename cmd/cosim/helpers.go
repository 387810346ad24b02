package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/companysim/cosim/internal/artifact"
	"github.com/companysim/cosim/internal/catalog"
	"github.com/companysim/cosim/internal/config"
	"github.com/companysim/cosim/internal/logging"
	"github.com/companysim/cosim/internal/similarity"
	"github.com/sirupsen/logrus"
)

// CatalogFile is the catalog database name under cache_dir.
const CatalogFile = "catalog.db"

// mustLoadConfig loads the configuration or exits with ExitConfigError.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the stderr logger described by cfg.
func mustNewLogger(cfg *config.Config) *logrus.Logger {
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return log
}

// buildSource returns the artifact source selected by cfg.
func buildSource(cfg *config.Config) (artifact.Source, error) {
	if cfg.Source == config.SourceMinio {
		return artifact.NewMinioSource(artifact.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			Bucket:    cfg.Minio.Bucket,
			Prefix:    cfg.Minio.Prefix,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
	}
	return artifact.NewLocalSource(cfg.ArtifactsDir), nil
}

// mustLoadBundle loads every artifact or exits with ExitDataError.
func mustLoadBundle(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *artifact.Bundle {
	src, err := buildSource(cfg)
	if err != nil {
		exitWithError(ExitConfigError, "artifact source: %v", err)
	}
	b, err := artifact.Load(ctx, src, log)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	return b
}

// mustLoadService loads config, logger and bundle and returns a ready service.
func mustLoadService(ctx context.Context) (*similarity.Service, *config.Config, *logrus.Logger) {
	cfg := mustLoadConfig()
	log := mustNewLogger(cfg)
	b := mustLoadBundle(ctx, cfg, log)
	return similarity.NewService(b, log), cfg, log
}

// mustOpenCatalog opens the name catalog, in cache_dir when configured,
// otherwise in memory, and fills it from the bundle's records.
func mustOpenCatalog(cfg *config.Config, svc *similarity.Service, log logrus.FieldLogger) *catalog.DB {
	path := catalog.InMemory
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
			exitWithError(ExitConfigError, "creating cache dir: %v", err)
		}
		path = filepath.Join(cfg.CacheDir, CatalogFile)
	}

	db, err := catalog.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	n, err := db.Rebuild(svc.Records())
	if err != nil {
		db.Close()
		exitWithError(ExitError, "building catalog: %v", err)
	}
	log.WithFields(logrus.Fields{"path": path, "rows": n}).Debug("catalog built")
	return db
}

// exitCodeFor maps lookup errors to exit codes.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, similarity.ErrCompanyNotFound):
		return ExitNotFound
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, artifact.ErrNotFound),
		errors.Is(err, artifact.ErrMalformed),
		errors.Is(err, artifact.ErrMisaligned),
		errors.Is(err, artifact.ErrUnsupportedVersion):
		return ExitDataError
	default:
		return ExitError
	}
}
