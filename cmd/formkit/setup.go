package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/pkg/entities"
	"github.com/goliatone/go-formkit/pkg/entities/pgstore"
	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/reactive/httpapi"
	"github.com/goliatone/go-formkit/pkg/schemafile"
	"github.com/goliatone/go-formkit/pkg/serialize"
	"github.com/goliatone/go-formkit/pkg/storage"
)

// runtime is a configured kit plus the resources that must be released.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	kit     *formkit.Kit
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func setup(ctx context.Context, c common) (*runtime, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if c.schemas != "" {
		cfg.Schemas.Dir = c.schemas
	}
	if c.openapi != "" {
		cfg.Schemas.OpenAPI = c.openapi
	}

	rt := &runtime{cfg: cfg, logger: cfg.Log.Logger(os.Stderr)}

	store, err := rt.store(ctx)
	if err != nil {
		return nil, err
	}
	disks, err := newDisks(cfg.Storage)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.kit = formkit.New(
		formkit.WithStore(store),
		formkit.WithLogger(rt.logger),
		formkit.WithTimeout(cfg.Resolver.Timeout),
		formkit.WithLimit(cfg.Resolver.Limit),
		formkit.WithDisks(disks),
		formkit.WithOptionsURL(httpapi.JoinPath(cfg.Server.BasePath, serialize.DefaultOptionsURL)),
	)
	if err := rt.loadSchemas(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *runtime) store(ctx context.Context) (entities.Store, error) {
	db := r.cfg.Database
	if !db.Enabled() {
		return entities.NewMemory(), nil
	}
	pool, err := pgstore.Connect(ctx, db.DSN, db.PoolSize)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, pool.Close)

	options := make([]pgstore.Option, 0, len(db.Tables))
	for entity, table := range db.Tables {
		options = append(options, pgstore.WithTable(entity, table))
	}
	return pgstore.New(pool, options...), nil
}

func newDisks(cfg config.StorageConfig) (*storage.Disks, error) {
	disks := storage.NewDisks()
	if err := disks.Register("public", storage.NewLocal(cfg.PublicURL)); err != nil {
		return nil, err
	}
	if !cfg.S3.Enabled() {
		return disks, nil
	}
	s3, err := storage.NewS3(storage.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		UseSSL:    cfg.S3.UseSSL,
		Public:    cfg.S3.Public,
		Expiry:    cfg.S3.Expiry,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 disk: %w", err)
	}
	if err := disks.Register("s3", s3); err != nil {
		return nil, err
	}
	return disks, nil
}

func (r *runtime) loadSchemas(ctx context.Context) error {
	if dir := r.cfg.Schemas.Dir; dir != "" {
		files, err := schemafile.LoadFS(os.DirFS(dir))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			r.logger.Warn("formkit: schema directory missing", "dir", dir)
		case err != nil:
			return err
		default:
			if err := files.Register(r.kit.Registry); err != nil {
				return err
			}
		}
	}

	if path := r.cfg.Schemas.OpenAPI; path != "" {
		doc, err := openapi.LoadFile(ctx, path)
		if err != nil {
			return err
		}
		for _, id := range doc.Operations() {
			schema, err := doc.Schema(id)
			if errors.Is(err, openapi.ErrNoRequestBody) {
				continue
			}
			if err != nil {
				return err
			}
			if err := r.kit.Register(schema); err != nil {
				return err
			}
		}
	}

	r.logger.Debug("formkit: schemas loaded", "ids", r.kit.Registry.IDs())
	return nil
}
