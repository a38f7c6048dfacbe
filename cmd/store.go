package cmd

import (
	"context"
	"database/sql"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/autoapply/autoapply/pkg/resume"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// backend bundles the configured pack store with the handles it owns.
type backend struct {
	store   pack.Store
	db      *sql.DB
	closers []func() error
}

func (b *backend) Close() {
	for _, c := range b.closers {
		_ = c()
	}
}

// openBackend connects to the store selected by store.backend.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (b *backend, err error) {
	b = &backend{}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		b.store = pack.NewMemoryStore()

	case config.BackendPostgres:
		var db *sql.DB
		db, err = pack.OpenPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return b, err
		}
		b.db = db
		b.closers = append(b.closers, db.Close)

		pg := pack.NewPostgresStore(db)
		err = pg.EnsureSchema(ctx)
		if err != nil {
			b.Close()
			return b, err
		}
		b.store = pg

	case config.BackendRedis:
		rs := pack.NewRedisStore(pack.NewRedisClient(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB), 0)
		b.closers = append(b.closers, rs.Close)

		err = rs.Ping(ctx)
		if err != nil {
			b.Close()
			return b, err
		}
		b.store = rs

	default:
		var fs *pack.FileStore
		fs, err = pack.NewFileStore(cfg.Store.Dir)
		if err != nil {
			err = errors.Wrap(err, "failed to open pack directory")
			return b, err
		}
		b.store = fs
	}

	logger.Debug("pack store ready", zap.String("backend", cfg.Store.Backend))
	return b, err
}

// resumeSource picks where the owner's resume comes from: an explicit file,
// the configured file, or the resumes table when the store is Postgres.
func resumeSource(flagPath string, cfg config.Config, b *backend) (source resume.Source) {
	path := flagPath
	if path == "" {
		path = cfg.ResumePath
	}
	if path == "" && b != nil && b.db != nil {
		source = resume.NewPostgresSource(b.db)
		return source
	}
	source = resume.FileSource{Path: path}
	return source
}
