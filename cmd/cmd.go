// Package cmd the crumb command line
package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/shiroyk/crumb/cache/bolt"
	"github.com/shiroyk/crumb/cache/redis"
	"github.com/shiroyk/crumb/cache/sqlite"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/lib/config"
	"golang.org/x/net/publicsuffix"
)

// Execute main command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured cookie store, the closer is nil for the
// memory store.
func openStore(cfg config.Jar) (cookiejar.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreBolt:
		opt := cfg.Bolt
		opt.Logger = slog.Default()
		store, err := bolt.NewCookie(opt)
		return store, store, err
	case config.StoreSQLite:
		store, err := sqlite.NewCookie(cfg.SQLite)
		return store, store, err
	case config.StoreRedis:
		store, err := redis.NewCookie(cfg.Redis)
		return store, store, err
	}
	return cookiejar.NewMemoryStore(), nil, nil
}

// withJar opens the configured jar, runs fn and closes the jar.
func withJar(cfg config.Config, fn func(*cookiejar.Jar) error) error {
	opt := cookiejar.Options{Logger: slog.Default()}
	if cfg.Jar.PublicSuffix {
		opt.PublicSuffixList = publicsuffix.List
	}
	store, closer, err := openStore(cfg.Jar)
	if err != nil {
		return err
	}
	opt.Store = store
	err = fn(cookiejar.New(opt))
	if closer != nil {
		err = errors.Join(err, closer.Close())
	}
	return err
}
