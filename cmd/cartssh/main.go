// Package main implements the SSH server that serves the storefront TUI.
// Every connection gets its own cart session, keyed by the buyer's public key.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"

	"github.com/thomas/eva-cart-go/internal/app"
	"github.com/thomas/eva-cart-go/internal/auth"
	"github.com/thomas/eva-cart-go/internal/config"
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/tui"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not read .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := app.NewLogger(cfg.LogLevel, os.Stderr)

	if err := ensureHostKey(cfg.SSHHostKeyPath, logger); err != nil {
		logger.Fatal("Failed to ensure host key", "err", err)
	}

	// Load allowlist if in allowlist mode
	var allowlist *auth.Allowlist
	if cfg.SSHAuthMode == config.AuthModeAllowlist {
		allowlist, err = auth.LoadAllowlist(cfg.AllowlistPath)
		if err != nil {
			if errors.Is(err, auth.ErrAllowlistNotFound) {
				logger.Info("Creating empty allowlist", "path", cfg.AllowlistPath)
				if err := auth.CreateEmptyAllowlist(cfg.AllowlistPath); err != nil {
					logger.Fatal("Failed to create allowlist", "err", err)
				}
				logger.Info("Please add your SSH public key to the allowlist and restart")
				os.Exit(1)
			}
			logger.Fatal("Failed to load allowlist", "err", err)
		}
		if allowlist.Len() == 0 {
			logger.Warn("Allowlist is empty, no connections will be accepted", "path", cfg.AllowlistPath)
		}
		logger.Info("Loaded allowlist", "keys", allowlist.Len())
	} else {
		logger.Warn("Running in PUBLIC mode, anyone can connect. Not safe for internet-facing servers.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", "err", err)
	}
	defer a.Close()
	go a.RunSweeper(ctx, time.Minute)

	countries := a.Engine.Currencies().Countries()

	teaHandler := func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		scope := auth.Scope(s.PublicKey(), "anon-"+s.Context().SessionID())
		country, locale := currency.Detect(currency.EnvLookup(s.Environ()), cfg.DefaultCountry, cfg.DefaultLocale)

		sess, err := a.OpenSession(s.Context(), scope, country, locale)
		if err != nil {
			logger.Error("Failed to open cart", "scope", scope, "err", err)
			wish.Fatalln(s, "Your cart is unavailable right now, please try again later.")
			return nil, nil
		}
		logger.Info("Cart opened", "user", s.User(), "scope", scope, "country", country, "locale", locale,
			"items", sess.Snapshot().ItemCount)

		return tui.NewModel(s.Context(), a.Catalog, sess, countries), []tea.ProgramOption{tea.WithAltScreen()}
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.SSHAddr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler),
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		wish.WithPublicKeyAuth(func(_ ssh.Context, key ssh.PublicKey) bool {
			if cfg.SSHAuthMode == config.AuthModePublic {
				return true
			}
			return allowlist.Allowed(key)
		}),
		// Always disable password auth
		wish.WithPasswordAuth(func(ssh.Context, string) bool {
			return false
		}),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("Failed to create SSH server", "err", err)
	}

	logger.Info("Starting SSH server",
		"addr", cfg.SSHAddr,
		"catalog", cfg.CatalogBaseURL,
		"auth", cfg.SSHAuthMode,
		"store", cfg.Store)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("Server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		logger.Fatal("Shutdown error", "err", err)
	}
}

// ensureHostKey generates an ED25519 host key if it doesn't exist.
func ensureHostKey(path string, logger *log.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	logger.Info("Generating new ED25519 host key", "path", path)

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	sshPrivKey, err := gossh.MarshalPrivateKey(privKey, "")
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(sshPrivKey), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	sshPubKey, err := gossh.NewPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("creating public key: %w", err)
	}
	if err := os.WriteFile(path+".pub", gossh.MarshalAuthorizedKey(sshPubKey), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	return nil
}
