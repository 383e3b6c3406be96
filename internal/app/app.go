// Package app wires configuration, reference data, storage and the catalog
// into the pieces the commands serve.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thomas/eva-cart-go/internal/cart"
	"github.com/thomas/eva-cart-go/internal/catalog"
	"github.com/thomas/eva-cart-go/internal/config"
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/gift"
	"github.com/thomas/eva-cart-go/internal/session"
	"github.com/thomas/eva-cart-go/internal/store"
)

// App holds the shared, process-wide dependencies.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Engine  *cart.Engine
	Store   store.Store
	Catalog *catalog.Client

	closers []func() error
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	currencies, tiers, err := LoadTables(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("reference data loaded",
		"countries", len(currencies.Countries()),
		"default_currency", currencies.Default().Code,
		"gift_tiers", len(tiers))

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Engine:  cart.NewEngine(currencies, tiers, logger.WithPrefix("engine")),
		Catalog: catalog.NewClient(cfg.CatalogBaseURL, catalog.WithCacheTTL(cfg.CacheTTL)),
	}

	st, closer, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = st
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// OpenSession opens the cart for scope, projected for country and locale.
// Empty values fall back to the configured defaults.
func (a *App) OpenSession(ctx context.Context, scope, country, locale string) (*session.Session, error) {
	if country == "" {
		country = a.Config.DefaultCountry
	}
	if locale == "" {
		locale = a.Config.DefaultLocale
	}
	return session.Open(ctx, a.Store, scope, a.Engine,
		session.WithLogger(a.Logger.With("scope", scope)),
		session.WithRegion(country, locale),
	)
}

// RunSweeper drops expired in-memory carts every interval until ctx is
// done. It returns immediately for other backends.
func (a *App) RunSweeper(ctx context.Context, interval time.Duration) {
	mem, ok := a.Store.(*store.Memory)
	if !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				a.Logger.Debug("expired carts swept", "count", n)
			}
		}
	}
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// LoadTables reads the currency and gift tables from the configured paths,
// or the built-in defaults.
func LoadTables(cfg *config.Config) (*currency.Table, gift.Table, error) {
	var (
		currencies *currency.Table
		tiers      gift.Table
		err        error
	)

	if cfg.CurrencyTablePath != "" {
		currencies, err = currency.LoadFile(cfg.CurrencyTablePath)
	} else {
		currencies, err = currency.Embedded()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading currency table: %w", err)
	}

	if cfg.GiftTiersPath != "" {
		tiers, err = gift.LoadFile(cfg.GiftTiersPath)
	} else {
		tiers, err = gift.Embedded()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading gift tiers: %w", err)
	}

	return currencies, tiers, nil
}
