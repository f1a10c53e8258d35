package cli

import (
	"fmt"

	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/pkg/adapters/file"
	"github.com/aretw0/rngsync/pkg/adapters/memory"
	"github.com/aretw0/rngsync/pkg/adapters/redis"
	"github.com/aretw0/rngsync/pkg/adapters/sqlite"
	"github.com/aretw0/rngsync/pkg/persistence/middleware"
	"github.com/aretw0/rngsync/pkg/ports"
)

// OpenStore builds the configured durable slot, wrapped with redaction and
// encryption when enabled. The returned close function releases the backend.
func OpenStore(cfg config.StorageConfig) (ports.StateStore, func() error, error) {
	var (
		store   ports.StateStore
		closeFn = func() error { return nil }
	)

	switch cfg.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile, "":
		store = file.New(cfg.Path)
	case config.BackendRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store, closeFn = rs, rs.Close
	case config.BackendSQLite:
		path := cfg.Path
		if path == "" || path == config.Default().Storage.Path {
			path = "rngsync.db"
		}
		ss, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = ss, ss.Close
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		redact, err := middleware.NewRedactionMiddleware(cfg.RedactPatterns)
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("invalid redaction pattern: %w", err)
		}
		mws = append(mws, redact)
	}

	key, err := (&config.Config{Storage: cfg}).EncryptionKey()
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if key != nil {
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		mws = append(mws, encrypt)
	}

	return middleware.Chain(store, mws...), closeFn, nil
}
